package repository

import (
	"context"
	"fmt"
	"testing"

	"price_compare_v1_202609/internal/model"
)

func testProduct(id, modelNumber, brand string) *model.Product {
	price := 18700.0
	inStock := true
	return &model.Product{
		ID:            id,
		Name:          "Speedcross 6",
		ModelNumber:   modelNumber,
		Brand:         brand,
		ImageURL:      "https://cdn.shopify.com/sc6.jpg",
		OfficialURL:   "https://salomon.jp/products/speedcross-6",
		Category:      "trail-running",
		Gender:        "men",
		OfficialPrice: &price,
		Colors:        []string{"Black", "Blue"},
		Sizes:         []string{"26.0", "27.0"},
		InStock:       &inStock,
		CreatedAt:     "2026-08-01T00:00:00Z",
		UpdatedAt:     "2026-08-01T00:00:00Z",
	}
}

func TestProductRepository_SaveFind(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	p := testProduct("p1", "L41737900", "Salomon")
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("FindByID() = nil")
	}
	if got.ID != "p1" || got.ModelNumber != "L41737900" || got.Brand != "Salomon" {
		t.Errorf("字段丢失: %+v", got)
	}
	if got.OfficialPrice == nil || *got.OfficialPrice != 18700 {
		t.Errorf("OfficialPrice = %v", got.OfficialPrice)
	}
	if len(got.Colors) != 2 {
		t.Errorf("Colors = %v", got.Colors)
	}
}

func TestProductRepository_FindByIDMiss(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))

	got, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindByID() = %+v, want nil", got)
	}
}

func TestProductRepository_FindByBrand(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		repo.Save(ctx, testProduct(fmt.Sprintf("p%d", i), fmt.Sprintf("L4173790%d", i), "Salomon"))
	}
	repo.Save(ctx, testProduct("other", "L99999999", "Hoka"))

	products, next, err := repo.FindByBrand(ctx, "Salomon", 10, "")
	if err != nil {
		t.Fatalf("FindByBrand() error = %v", err)
	}
	if len(products) != 3 {
		t.Errorf("结果数 = %d, want 3", len(products))
	}
	if next != "" {
		t.Errorf("next = %q, want 空", next)
	}
	for _, p := range products {
		if p.Brand != "Salomon" {
			t.Errorf("混入了品牌 %s", p.Brand)
		}
	}
}

func TestProductRepository_FindAllPagination(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Save(ctx, testProduct(fmt.Sprintf("p%d", i), fmt.Sprintf("L4173790%d", i), "Salomon"))
	}

	var all []model.Product
	cursor := ""
	for {
		page, next, err := repo.FindAll(ctx, 2, cursor)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		cursor = next
	}
	if len(all) != 5 {
		t.Errorf("总数 = %d, want 5", len(all))
	}

	seen := make(map[string]bool)
	for _, p := range all {
		if seen[p.ID] {
			t.Errorf("分页重复: %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestProductRepository_FindByModelNumber(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	repo.Save(ctx, testProduct("p1", "L41737900", "Salomon"))
	repo.Save(ctx, testProduct("p2", "L47112500", "Salomon"))

	got, err := repo.FindByModelNumber(ctx, "L47112500")
	if err != nil {
		t.Fatalf("FindByModelNumber() error = %v", err)
	}
	if got == nil || got.ID != "p2" {
		t.Errorf("FindByModelNumber() = %+v, want p2", got)
	}

	miss, err := repo.FindByModelNumber(ctx, "L00000000")
	if err != nil {
		t.Fatalf("FindByModelNumber() error = %v", err)
	}
	if miss != nil {
		t.Errorf("未知型号应返回 nil, got %+v", miss)
	}
}

func TestProductRepository_SaveOverwrites(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	p := testProduct("p1", "L41737900", "Salomon")
	repo.Save(ctx, p)

	p.Name = "Speedcross 6 GTX"
	p.UpdatedAt = "2026-08-02T00:00:00Z"
	repo.Save(ctx, p)

	got, _ := repo.FindByID(ctx, "p1")
	if got.Name != "Speedcross 6 GTX" {
		t.Errorf("Name = %q", got.Name)
	}

	// 同 ID 覆盖写不产生第二条记录
	all, _, _ := repo.FindAll(ctx, 10, "")
	if len(all) != 1 {
		t.Errorf("记录数 = %d, want 1", len(all))
	}
}

func TestProductRepository_Delete(t *testing.T) {
	repo := NewProductRepository(setupTestStore(t))
	ctx := context.Background()

	repo.Save(ctx, testProduct("p1", "L41737900", "Salomon"))
	if err := repo.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, _ := repo.FindByID(ctx, "p1")
	if got != nil {
		t.Error("删除后仍能查到")
	}
}
