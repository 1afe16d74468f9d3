package repository

import (
	"context"

	"price_compare_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Save 整条覆盖保存
	Save(ctx context.Context, product *model.Product) error
	// FindByID 点查，未命中返回 (nil, nil)
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	// FindAll 全量分页扫描，cursor 为不透明续传游标
	FindAll(ctx context.Context, limit int, cursor string) ([]model.Product, string, error)
	// FindByBrand 品牌维度查询（走二级索引）
	FindByBrand(ctx context.Context, brand string, limit int, cursor string) ([]model.Product, string, error)
	// FindByModelNumber 按型号查找，目录同步的去重入口；未命中返回 (nil, nil)
	FindByModelNumber(ctx context.Context, modelNumber string) (*model.Product, error)
	// Delete 删除商品主记录（人工运维操作，管道不调用）
	Delete(ctx context.Context, productID string) error
}

// ==================== 仓储实现 ====================

type productRepo struct {
	store ItemStore
}

// NewProductRepository 创建商品仓储
func NewProductRepository(store ItemStore) ProductRepository {
	return &productRepo{store: store}
}

func (r *productRepo) Save(ctx context.Context, product *model.Product) error {
	item, err := model.ProductToItem(product)
	if err != nil {
		return err
	}
	return r.store.PutItem(ctx, item)
}

func (r *productRepo) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	item, err := r.store.GetItem(ctx, model.ProductPK(productID), model.ProductMetaSK)
	if err != nil || item == nil {
		return nil, err
	}
	return model.ItemToProduct(item)
}

func (r *productRepo) FindAll(ctx context.Context, limit int, cursor string) ([]model.Product, string, error) {
	items, next, err := r.store.Scan(ctx, model.EntityTypeProduct, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	products, err := itemsToProducts(items)
	return products, next, err
}

func (r *productRepo) FindByBrand(ctx context.Context, brand string, limit int, cursor string) ([]model.Product, string, error) {
	items, next, err := r.store.QueryIndex(ctx, model.BrandKey(brand), limit, cursor)
	if err != nil {
		return nil, "", err
	}
	products, err := itemsToProducts(items)
	return products, next, err
}

// FindByModelNumber 分页扫描全部商品并在内存中比对型号
// 商品总量在数百量级，扫描成本可以接受
func (r *productRepo) FindByModelNumber(ctx context.Context, modelNumber string) (*model.Product, error) {
	cursor := ""
	for {
		products, next, err := r.FindAll(ctx, defaultPageSize, cursor)
		if err != nil {
			return nil, err
		}
		for i := range products {
			if products[i].ModelNumber == modelNumber {
				return &products[i], nil
			}
		}
		if next == "" {
			return nil, nil
		}
		cursor = next
	}
}

func (r *productRepo) Delete(ctx context.Context, productID string) error {
	return r.store.DeleteItem(ctx, model.ProductPK(productID), model.ProductMetaSK)
}

func itemsToProducts(items []model.TableItem) ([]model.Product, error) {
	products := make([]model.Product, 0, len(items))
	for i := range items {
		p, err := model.ItemToProduct(&items[i])
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}
