package core

import "context"

// BookRepository 是图书数据源的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎只做查询，不做事务、不做持久化
//
// 约定：
//   - 所有列表按图书 ID 升序返回，保证语料构建的确定性
//   - BookByID 找不到时返回 ErrBookNotFound（可用 IsNotFound 判断）
type BookRepository interface {
	// AvailableBooks 返回所有 available = true 的图书
	AvailableBooks(ctx context.Context) ([]*Book, error)

	// BookByID 按 ID 读取图书（无论是否可用）
	BookByID(ctx context.Context, id int64) (*Book, error)

	// BooksExcluding 返回可用图书，排除 ownerID 拥有的以及 excludedIDs 中的
	BooksExcluding(ctx context.Context, ownerID int64, excludedIDs []int64) ([]*Book, error)

	// PopularityRank 返回按总行为数降序的可用图书（同分按 ID 升序），最多 limit 个
	PopularityRank(ctx context.Context, limit int) ([]PopularBook, error)
}

// InteractionRepository 是用户行为数据源的领域接口。
type InteractionRepository interface {
	// InteractionsByUser 返回用户的全部行为（按时间升序）
	InteractionsByUser(ctx context.Context, userID int64) ([]*Interaction, error)

	// InteractionsByBook 返回某本书上的全部行为（按时间升序）
	InteractionsByBook(ctx context.Context, bookID int64) ([]*Interaction, error)

	// InteractionCounts 返回每本书的总行为数（所有用户、所有类型）
	InteractionCounts(ctx context.Context) (map[int64]int, error)
}

// PopularBook 是热门排行中的一项。
type PopularBook struct {
	Book             *Book `json:"book"`
	InteractionCount int   `json:"interaction_count"`
}
