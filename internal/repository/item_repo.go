package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"price_compare_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// ErrInvalidCursor 分页游标无法解析（API 层映射为 400）
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// ItemStore 单表通用访问接口
// 四种物理访问路径：点查、SK 前缀查询、二级索引查询、带过滤的全表扫描
// 所有写入均为整条覆盖，不提供局部更新
type ItemStore interface {
	// PutItem 整条覆盖写入
	PutItem(ctx context.Context, item *model.TableItem) error
	// GetItem 点查，未命中返回 (nil, nil)
	GetItem(ctx context.Context, pk, sk string) (*model.TableItem, error)
	// QueryPrefix 按分区键 + 排序键前缀查询，SK 升序
	QueryPrefix(ctx context.Context, pk, skPrefix string) ([]model.TableItem, error)
	// QueryIndex 二级索引查询，GSI1SK 升序，cursor 为不透明续传游标
	QueryIndex(ctx context.Context, gsi1pk string, limit int, cursor string) ([]model.TableItem, string, error)
	// Scan 按实体类型过滤的全表扫描，(PK, SK) 升序分页
	Scan(ctx context.Context, entityType string, limit int, cursor string) ([]model.TableItem, string, error)
	// DeleteItem 删除单条记录（仅供人工运维使用，管道本身不删数据）
	DeleteItem(ctx context.Context, pk, sk string) error
}

// ==================== 游标编解码 ====================

// itemCursor 续传位置，base64(JSON) 后对外不透明
type itemCursor struct {
	PK     string `json:"PK"`
	SK     string `json:"SK"`
	GSI1SK string `json:"GSI1SK,omitempty"`
}

func encodeCursor(c *itemCursor) string {
	data, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(data)
}

func decodeCursor(token string) (*itemCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c itemCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.PK == "" || c.SK == "" {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// ==================== 仓储实现 ====================

type itemStore struct {
	db *gorm.DB
}

// NewItemStore 创建单表仓储
func NewItemStore(db *gorm.DB) ItemStore {
	return &itemStore{db: db}
}

func (s *itemStore) PutItem(ctx context.Context, item *model.TableItem) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
			UpdateAll: true,
		}).
		Create(item).Error
}

func (s *itemStore) GetItem(ctx context.Context, pk, sk string) (*model.TableItem, error) {
	var item model.TableItem
	err := s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", pk, sk).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *itemStore) QueryPrefix(ctx context.Context, pk, skPrefix string) ([]model.TableItem, error) {
	var items []model.TableItem
	err := s.db.WithContext(ctx).
		Where("pk = ? AND sk LIKE ?", pk, skPrefix+"%").
		Order("sk asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *itemStore) QueryIndex(ctx context.Context, gsi1pk string, limit int, cursor string) ([]model.TableItem, string, error) {
	cur, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := s.db.WithContext(ctx).
		Where("gsi1_pk = ?", gsi1pk).
		Order("gsi1_sk asc, pk asc, sk asc")
	if cur != nil {
		query = query.Where(
			"gsi1_sk > ? OR (gsi1_sk = ? AND (pk > ? OR (pk = ? AND sk > ?)))",
			cur.GSI1SK, cur.GSI1SK, cur.PK, cur.PK, cur.SK,
		)
	}

	// 多取一条判断是否还有下一页
	var items []model.TableItem
	if err := query.Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = encodeCursor(&itemCursor{PK: last.PK, SK: last.SK, GSI1SK: last.GSI1SK})
	}
	return items, next, nil
}

func (s *itemStore) Scan(ctx context.Context, entityType string, limit int, cursor string) ([]model.TableItem, string, error) {
	cur, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := s.db.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Order("pk asc, sk asc")
	if cur != nil {
		query = query.Where("pk > ? OR (pk = ? AND sk > ?)", cur.PK, cur.PK, cur.SK)
	}

	var items []model.TableItem
	if err := query.Limit(limit + 1).Find(&items).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = encodeCursor(&itemCursor{PK: last.PK, SK: last.SK})
	}
	return items, next, nil
}

func (s *itemStore) DeleteItem(ctx context.Context, pk, sk string) error {
	return s.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", pk, sk).
		Delete(&model.TableItem{}).Error
}

const defaultPageSize = 100
