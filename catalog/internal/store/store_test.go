package store

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA foreign_keys=ON")
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestApplySchema(t *testing.T) {
	s := openTestDB(t)
	for _, table := range []string{"categories", "products", "product_details"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestUpsertCategoryIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	first := &Category{
		ID: "cat-1", Title: "Fiction", Slug: "fiction",
		SourceURL: "https://example.com/fiction",
		LastRefreshedAt: 1000, CreatedAt: 1000,
	}
	if err := s.UpsertCategory(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same slug, different id and mutable fields.
	second := &Category{
		ID: "cat-2", Title: "Fiction Books", Slug: "fiction",
		SourceURL: "https://example.com/category/fiction",
		LastRefreshedAt: 2000, CreatedAt: 2000,
	}
	if err := s.UpsertCategory(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	cats, err := s.ListCategories(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("want exactly one row, got %d", len(cats))
	}
	got := cats[0]
	if got.ID != "cat-1" {
		t.Errorf("id should be preserved across upserts, got %q", got.ID)
	}
	if got.CreatedAt != 1000 {
		t.Errorf("created_at should be preserved, got %d", got.CreatedAt)
	}
	if got.Title != "Fiction Books" || got.LastRefreshedAt != 2000 {
		t.Errorf("mutable fields not updated: %+v", got)
	}
}

func TestListCategoriesOrder(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	for i, slug := range []string{"fiction", "academic", "childrens"} {
		c := &Category{
			ID: "cat-" + slug, Title: slug, Slug: slug,
			LastRefreshedAt: int64(1000 + i), CreatedAt: int64(1000 + i),
		}
		if err := s.UpsertCategory(ctx, c); err != nil {
			t.Fatalf("upsert %s: %v", slug, err)
		}
	}

	cats, err := s.ListCategories(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"fiction", "academic", "childrens"}
	for i, c := range cats {
		if c.Slug != want[i] {
			t.Errorf("position %d: got %q, want %q (creation order)", i, c.Slug, want[i])
		}
	}
}

func TestListCategoriesOrderSameTimestamp(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	// A batch write stamps every row with the same created_at; insertion
	// order must still win over alphabetical slug order.
	for _, slug := range []string{"fiction", "non-fiction", "childrens", "academic"} {
		c := &Category{
			ID: "cat-" + slug, Title: slug, Slug: slug,
			LastRefreshedAt: 1000, CreatedAt: 1000,
		}
		if err := s.UpsertCategory(ctx, c); err != nil {
			t.Fatalf("upsert %s: %v", slug, err)
		}
	}

	cats, err := s.ListCategories(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"fiction", "non-fiction", "childrens", "academic"}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories", len(cats))
	}
	for i, c := range cats {
		if c.Slug != want[i] {
			t.Errorf("position %d: got %q, want %q (insertion order)", i, c.Slug, want[i])
		}
	}
}

func TestUpsertProductIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	p := &Product{
		ID: "prd-1", SourceID: "bk-100-0-abcd", CategorySlug: "mystery",
		Title: "First Title", Price: 7.99, Currency: "GBP",
		LastRefreshedAt: 1000, CreatedAt: 1000,
	}
	if err := s.UpsertProduct(ctx, p); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	p2 := &Product{
		ID: "prd-2", SourceID: "bk-100-0-abcd", CategorySlug: "mystery",
		Title: "Updated Title", Author: "A. Writer", Price: 9.50, Currency: "GBP",
		LastRefreshedAt: 2000, CreatedAt: 2000,
	}
	if err := s.UpsertProduct(ctx, p2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	prods, err := s.ListProducts(ctx, "mystery", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(prods) != 1 {
		t.Fatalf("want exactly one row, got %d", len(prods))
	}
	got := prods[0]
	if got.ID != "prd-1" || got.CreatedAt != 1000 {
		t.Errorf("identity fields should be preserved: %+v", got)
	}
	if got.Title != "Updated Title" || got.Price != 9.50 || got.Author != "A. Writer" {
		t.Errorf("mutable fields not updated: %+v", got)
	}
}

func TestDeleteProductsByCategory(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p := &Product{
			ID: "prd-m-" + string(rune('a'+i)), SourceID: "src-m-" + string(rune('a'+i)),
			CategorySlug: "mystery", Title: "M", Price: 5, Currency: "GBP",
			LastRefreshedAt: 1000, CreatedAt: 1000,
		}
		if err := s.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	other := &Product{
		ID: "prd-r-1", SourceID: "src-r-1", CategorySlug: "romance",
		Title: "R", Price: 5, Currency: "GBP", LastRefreshedAt: 1000, CreatedAt: 1000,
	}
	if err := s.UpsertProduct(ctx, other); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	n, err := s.DeleteProductsByCategory(ctx, "mystery")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted: got %d, want 3", n)
	}

	left, _ := s.ListProducts(ctx, "romance", 10)
	if len(left) != 1 {
		t.Errorf("other category should be untouched, got %d rows", len(left))
	}
}

func TestListProductsRecencyOrder(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	for i, ts := range []int64{1000, 3000, 2000} {
		p := &Product{
			ID: "prd-" + string(rune('a'+i)), SourceID: "src-" + string(rune('a'+i)),
			CategorySlug: "fiction", Title: "T", Price: 5, Currency: "GBP",
			LastRefreshedAt: ts, CreatedAt: ts,
		}
		if err := s.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	prods, err := s.ListProducts(ctx, "fiction", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(prods) != 3 {
		t.Fatalf("got %d rows", len(prods))
	}
	if prods[0].LastRefreshedAt != 3000 || prods[2].LastRefreshedAt != 1000 {
		t.Errorf("not in most-recent-first order: %d, %d, %d",
			prods[0].LastRefreshedAt, prods[1].LastRefreshedAt, prods[2].LastRefreshedAt)
	}
}

func TestLatestRefreshTimestamps(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	ts, err := s.LatestCategoryRefresh(ctx)
	if err != nil {
		t.Fatalf("latest category refresh: %v", err)
	}
	if ts != nil {
		t.Errorf("empty table should yield nil, got %d", *ts)
	}

	c := &Category{ID: "cat-1", Title: "Fiction", Slug: "fiction", LastRefreshedAt: 4200, CreatedAt: 4200}
	if err := s.UpsertCategory(ctx, c); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ts, err = s.LatestCategoryRefresh(ctx)
	if err != nil {
		t.Fatalf("latest category refresh: %v", err)
	}
	if ts == nil || *ts != 4200 {
		t.Errorf("got %v, want 4200", ts)
	}

	pts, err := s.LatestProductRefresh(ctx, "fiction")
	if err != nil {
		t.Fatalf("latest product refresh: %v", err)
	}
	if pts != nil {
		t.Errorf("no products for key should yield nil, got %d", *pts)
	}
}

func TestProductDetailRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	p := &Product{
		ID: "prd-1", SourceID: "src-1", CategorySlug: "fiction",
		Title: "T", Price: 5, Currency: "GBP", LastRefreshedAt: 1000, CreatedAt: 1000,
	}
	if err := s.UpsertProduct(ctx, p); err != nil {
		t.Fatalf("upsert product: %v", err)
	}

	got, err := s.GetProductDetail(ctx, "prd-1")
	if err != nil {
		t.Fatalf("get missing detail: %v", err)
	}
	if got != nil {
		t.Fatal("detail should be nil before insert")
	}

	d := &ProductDetail{
		ProductID: "prd-1", Description: "A gripping read.",
		RatingsAvg: 4.2, ReviewsCount: 37, CreatedAt: 1000,
	}
	if err := s.InsertProductDetail(ctx, d); err != nil {
		t.Fatalf("insert detail: %v", err)
	}

	got, err = s.GetProductDetail(ctx, "prd-1")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if got == nil || got.RatingsAvg != 4.2 || got.ReviewsCount != 37 {
		t.Errorf("detail mismatch: %+v", got)
	}
}
