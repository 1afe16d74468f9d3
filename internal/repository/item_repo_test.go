package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"price_compare_v1_202609/internal/model"
)

func setupTestStore(t *testing.T) ItemStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.TableItem{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return NewItemStore(db)
}

func testItem(pk, sk, entityType string) *model.TableItem {
	return &model.TableItem{
		PK:         pk,
		SK:         sk,
		EntityType: entityType,
		Data:       []byte(`{}`),
	}
}

func TestItemStore_PutGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testItem("PRODUCT#p1", "METADATA", model.EntityTypeProduct)
	item.Data = []byte(`{"name":"Speedcross 6"}`)
	if err := store.PutItem(ctx, item); err != nil {
		t.Fatalf("PutItem() error = %v", err)
	}

	got, err := store.GetItem(ctx, "PRODUCT#p1", "METADATA")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetItem() = nil, want item")
	}

	var data map[string]string
	if err := json.Unmarshal(got.Data, &data); err != nil {
		t.Fatalf("解析 Data 失败: %v", err)
	}
	if data["name"] != "Speedcross 6" {
		t.Errorf("Data.name = %q", data["name"])
	}
}

func TestItemStore_GetMiss(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.GetItem(context.Background(), "PRODUCT#missing", "METADATA")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetItem() = %+v, want nil", got)
	}
}

func TestItemStore_PutOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := testItem("PRODUCT#p1", "PRICE#amazon", model.EntityTypePrice)
	item.Data = []byte(`{"price":100}`)
	if err := store.PutItem(ctx, item); err != nil {
		t.Fatalf("第一次 PutItem() error = %v", err)
	}

	item2 := testItem("PRODUCT#p1", "PRICE#amazon", model.EntityTypePrice)
	item2.Data = []byte(`{"price":200}`)
	item2.GSI1PK = "PLATFORM#amazon"
	if err := store.PutItem(ctx, item2); err != nil {
		t.Fatalf("第二次 PutItem() error = %v", err)
	}

	got, _ := store.GetItem(ctx, "PRODUCT#p1", "PRICE#amazon")
	var data map[string]float64
	json.Unmarshal(got.Data, &data)
	if data["price"] != 200 {
		t.Errorf("覆盖写后 price = %v, want 200", data["price"])
	}
	if got.GSI1PK != "PLATFORM#amazon" {
		t.Errorf("覆盖写后 GSI1PK = %q", got.GSI1PK)
	}
}

func TestItemStore_QueryPrefix(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.PutItem(ctx, testItem("PRODUCT#p1", "METADATA", model.EntityTypeProduct))
	store.PutItem(ctx, testItem("PRODUCT#p1", "PRICE#amazon", model.EntityTypePrice))
	store.PutItem(ctx, testItem("PRODUCT#p1", "PRICE#rakuten", model.EntityTypePrice))
	store.PutItem(ctx, testItem("PRODUCT#p2", "PRICE#amazon", model.EntityTypePrice))

	items, err := store.QueryPrefix(ctx, "PRODUCT#p1", "PRICE#")
	if err != nil {
		t.Fatalf("QueryPrefix() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("结果数 = %d, want 2", len(items))
	}
	// SK 升序
	if items[0].SK != "PRICE#amazon" || items[1].SK != "PRICE#rakuten" {
		t.Errorf("排序错误: %s, %s", items[0].SK, items[1].SK)
	}
}

func TestItemStore_QueryIndexPagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		item := testItem(fmt.Sprintf("PRODUCT#p%d", i), "PRICE#amazon", model.EntityTypePrice)
		item.GSI1PK = "PLATFORM#amazon"
		item.GSI1SK = fmt.Sprintf("UPDATED#2026-08-0%dT00:00:00Z", i+1)
		store.PutItem(ctx, item)
	}
	// 其他分区不应混入
	other := testItem("PRODUCT#x", "PRICE#rakuten", model.EntityTypePrice)
	other.GSI1PK = "PLATFORM#rakuten"
	other.GSI1SK = "UPDATED#2026-08-01T00:00:00Z"
	store.PutItem(ctx, other)

	page1, next, err := store.QueryIndex(ctx, "PLATFORM#amazon", 3, "")
	if err != nil {
		t.Fatalf("QueryIndex() error = %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("第一页数量 = %d, want 3", len(page1))
	}
	if next == "" {
		t.Fatal("应有下一页游标")
	}

	page2, next2, err := store.QueryIndex(ctx, "PLATFORM#amazon", 3, next)
	if err != nil {
		t.Fatalf("第二页 error = %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("第二页数量 = %d, want 2", len(page2))
	}
	if next2 != "" {
		t.Errorf("末页游标 = %q, want 空", next2)
	}

	// 两页不相交且按 GSI1SK 升序
	seen := make(map[string]bool)
	prev := ""
	for _, item := range append(page1, page2...) {
		key := item.PK + "|" + item.SK
		if seen[key] {
			t.Errorf("分页结果重复: %s", key)
		}
		seen[key] = true
		if item.GSI1SK < prev {
			t.Errorf("GSI1SK 乱序: %s < %s", item.GSI1SK, prev)
		}
		prev = item.GSI1SK
	}
}

func TestItemStore_ScanPagination(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.PutItem(ctx, testItem(fmt.Sprintf("PRODUCT#p%d", i), "METADATA", model.EntityTypeProduct))
		store.PutItem(ctx, testItem(fmt.Sprintf("PRODUCT#p%d", i), "PRICE#amazon", model.EntityTypePrice))
	}

	var all []model.TableItem
	cursor := ""
	pages := 0
	for {
		items, next, err := store.Scan(ctx, model.EntityTypeProduct, 2, cursor)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		all = append(all, items...)
		pages++
		if next == "" {
			break
		}
		cursor = next
	}

	if len(all) != 5 {
		t.Errorf("扫描总数 = %d, want 5 (price 实体不应混入)", len(all))
	}
	if pages != 3 {
		t.Errorf("页数 = %d, want 3", pages)
	}
	for _, item := range all {
		if item.EntityType != model.EntityTypeProduct {
			t.Errorf("混入了 %s 实体", item.EntityType)
		}
	}
}

func TestItemStore_InvalidCursor(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		cursor string
	}{
		{"非 base64", "!!!not-base64!!!"},
		{"非 JSON", "bm90LWpzb24="},
		{"缺字段", "e30="}, // {}
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := store.Scan(ctx, model.EntityTypeProduct, 10, tt.cursor); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("Scan() error = %v, want ErrInvalidCursor", err)
			}
			if _, _, err := store.QueryIndex(ctx, "PLATFORM#amazon", 10, tt.cursor); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("QueryIndex() error = %v, want ErrInvalidCursor", err)
			}
		})
	}
}

func TestItemStore_CursorRoundTrip(t *testing.T) {
	cur := &itemCursor{PK: "PRODUCT#p1", SK: "PRICE#amazon", GSI1SK: "UPDATED#2026-08-01T00:00:00Z"}
	token := encodeCursor(cur)

	decoded, err := decodeCursor(token)
	if err != nil {
		t.Fatalf("decodeCursor() error = %v", err)
	}
	if *decoded != *cur {
		t.Errorf("往返不一致: %+v != %+v", decoded, cur)
	}
}

func TestItemStore_Delete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.PutItem(ctx, testItem("PRODUCT#p1", "METADATA", model.EntityTypeProduct))
	if err := store.DeleteItem(ctx, "PRODUCT#p1", "METADATA"); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}

	got, _ := store.GetItem(ctx, "PRODUCT#p1", "METADATA")
	if got != nil {
		t.Error("删除后仍能查到")
	}
}
