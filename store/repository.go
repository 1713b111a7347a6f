package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

const (
	defaultKeyPrefix       = "bookrec"
	defaultViewDedupWindow = 5 * time.Minute
)

// Repository 在 KeyValueStore 之上实现 core.BookRepository 与 core.InteractionRepository。
//
// 存储布局（{p} 为 KeyPrefix）：
//
//	{p}:books                     Hash   book id -> Book JSON
//	{p}:interactions:user:{uid}   Hash   interaction id -> Interaction JSON
//	{p}:interactions:book:{bid}   Hash   interaction id -> Interaction JSON
//	{p}:popularity                ZSet   book id -> 总行为数
//	{p}:seq                       ZSet   "book" / "interaction" -> 自增 ID
type Repository struct {
	kv              core.KeyValueStore
	prefix          string
	viewDedupWindow time.Duration
	now             func() time.Time
}

// RepositoryOption 配置 Repository。
type RepositoryOption func(*Repository)

// WithKeyPrefix 设置 key 前缀，默认 "bookrec"。
func WithKeyPrefix(p string) RepositoryOption {
	return func(r *Repository) {
		if p != "" {
			r.prefix = p
		}
	}
}

// WithViewDedupWindow 设置重复浏览的抑制窗口，默认 5 分钟；<= 0 关闭抑制。
func WithViewDedupWindow(d time.Duration) RepositoryOption {
	return func(r *Repository) { r.viewDedupWindow = d }
}

// WithNow 替换时钟（测试用）。
func WithNow(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// NewRepository 创建仓储。
func NewRepository(kv core.KeyValueStore, opts ...RepositoryOption) *Repository {
	r := &Repository{
		kv:              kv,
		prefix:          defaultKeyPrefix,
		viewDedupWindow: defaultViewDedupWindow,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	_ core.BookRepository        = (*Repository)(nil)
	_ core.InteractionRepository = (*Repository)(nil)
)

func (r *Repository) booksKey() string      { return r.prefix + ":books" }
func (r *Repository) popularityKey() string { return r.prefix + ":popularity" }
func (r *Repository) seqKey() string        { return r.prefix + ":seq" }
func (r *Repository) userKey(uid int64) string {
	return r.prefix + ":interactions:user:" + strconv.FormatInt(uid, 10)
}
func (r *Repository) bookKey(bid int64) string {
	return r.prefix + ":interactions:book:" + strconv.FormatInt(bid, 10)
}

func (r *Repository) nextID(ctx context.Context, kind string) (int64, error) {
	v, err := r.kv.ZIncrBy(ctx, r.seqKey(), 1, kind)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", kind, err)
	}
	return int64(v), nil
}

// bumpSeq 保证显式写入的 ID 不会被后续自增 ID 覆盖。
func (r *Repository) bumpSeq(ctx context.Context, kind string, id int64) error {
	cur, err := r.kv.ZScore(ctx, r.seqKey(), kind)
	if err != nil && !core.IsStoreNotFound(err) {
		return err
	}
	if int64(cur) < id {
		return r.kv.ZAdd(ctx, r.seqKey(), float64(id), kind)
	}
	return nil
}

// PutBook 写入或覆盖图书；ID 为 0 时分配新 ID。
func (r *Repository) PutBook(ctx context.Context, b *core.Book) error {
	if b == nil {
		return core.NewDomainError(core.ModuleBook, core.ErrorCodeInvalidInput, "book: nil")
	}
	if b.ID == 0 {
		id, err := r.nextID(ctx, "book")
		if err != nil {
			return err
		}
		b.ID = id
	} else if err := r.bumpSeq(ctx, "book", b.ID); err != nil {
		return err
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode book %d: %w", b.ID, err)
	}
	return r.kv.HSet(ctx, r.booksKey(), strconv.FormatInt(b.ID, 10), data)
}

// DeleteBook 删除图书。已有的行为记录保留，画像构建时会跳过它们。
func (r *Repository) DeleteBook(ctx context.Context, id int64) error {
	return r.kv.HDel(ctx, r.booksKey(), strconv.FormatInt(id, 10))
}

// SetAvailability 修改图书可用状态。
func (r *Repository) SetAvailability(ctx context.Context, id int64, available bool) error {
	b, err := r.BookByID(ctx, id)
	if err != nil {
		return err
	}
	b.Available = available
	return r.PutBook(ctx, b)
}

// BookByID 实现 core.BookRepository。
func (r *Repository) BookByID(ctx context.Context, id int64) (*core.Book, error) {
	data, err := r.kv.HGet(ctx, r.booksKey(), strconv.FormatInt(id, 10))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrBookNotFound
		}
		return nil, fmt.Errorf("load book %d: %w", id, err)
	}
	var b core.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode book %d: %w", id, err)
	}
	return &b, nil
}

func (r *Repository) allBooks(ctx context.Context) ([]*core.Book, error) {
	raw, err := r.kv.HGetAll(ctx, r.booksKey())
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	books := make([]*core.Book, 0, len(raw))
	for field, data := range raw {
		var b core.Book
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode book %s: %w", field, err)
		}
		books = append(books, &b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// AvailableBooks 实现 core.BookRepository，按 ID 升序。
func (r *Repository) AvailableBooks(ctx context.Context) ([]*core.Book, error) {
	return r.BooksExcluding(ctx, 0, nil)
}

// BooksExcluding 实现 core.BookRepository。ownerID 为 0 表示不按拥有者排除。
func (r *Repository) BooksExcluding(ctx context.Context, ownerID int64, excludedIDs []int64) ([]*core.Book, error) {
	all, err := r.allBooks(ctx)
	if err != nil {
		return nil, err
	}
	excluded := make(map[int64]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}
	out := make([]*core.Book, 0, len(all))
	for _, b := range all {
		if !b.Available {
			continue
		}
		if ownerID != 0 && b.OwnerID == ownerID {
			continue
		}
		if _, ok := excluded[b.ID]; ok {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// PopularityRank 实现 core.BookRepository：可用图书按总行为数降序，同分按 ID 升序。
func (r *Repository) PopularityRank(ctx context.Context, limit int) ([]core.PopularBook, error) {
	if limit <= 0 {
		return []core.PopularBook{}, nil
	}
	books, err := r.AvailableBooks(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := r.InteractionCounts(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]core.PopularBook, 0, len(books))
	for _, b := range books {
		ranked = append(ranked, core.PopularBook{Book: b, InteractionCount: counts[b.ID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].InteractionCount != ranked[j].InteractionCount {
			return ranked[i].InteractionCount > ranked[j].InteractionCount
		}
		return ranked[i].Book.ID < ranked[j].Book.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// AddInteraction 原样写入一条行为（种子数据、导入）。ID 为 0 时分配新 ID。
func (r *Repository) AddInteraction(ctx context.Context, in *core.Interaction) error {
	if in == nil || !in.Kind.Valid() {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "interaction: invalid type")
	}
	if in.ID == 0 {
		id, err := r.nextID(ctx, "interaction")
		if err != nil {
			return err
		}
		in.ID = id
	} else if err := r.bumpSeq(ctx, "interaction", in.ID); err != nil {
		return err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now().UTC()
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode interaction %d: %w", in.ID, err)
	}
	field := strconv.FormatInt(in.ID, 10)
	if err := r.kv.HSet(ctx, r.userKey(in.UserID), field, data); err != nil {
		return err
	}
	if err := r.kv.HSet(ctx, r.bookKey(in.BookID), field, data); err != nil {
		return err
	}
	_, err = r.kv.ZIncrBy(ctx, r.popularityKey(), 1, strconv.FormatInt(in.BookID, 10))
	return err
}

// RecordInteraction 记录一次用户行为。
// 图书不存在返回 ErrBookNotFound；同一用户对同一本书在抑制窗口内的重复 view 不会再写，
// 此时返回已有记录与 recorded = false。
func (r *Repository) RecordInteraction(ctx context.Context, userID, bookID int64, kind core.InteractionKind) (in *core.Interaction, recorded bool, err error) {
	if !kind.Valid() {
		return nil, false, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: invalid type %q", kind))
	}
	if _, err := r.BookByID(ctx, bookID); err != nil {
		return nil, false, err
	}

	now := r.now().UTC()
	if kind == core.InteractionView && r.viewDedupWindow > 0 {
		history, err := r.InteractionsByUser(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		cutoff := now.Add(-r.viewDedupWindow)
		for _, h := range history {
			if h.BookID == bookID && h.Kind == core.InteractionView && h.CreatedAt.After(cutoff) {
				return h, false, nil
			}
		}
	}

	in = &core.Interaction{UserID: userID, BookID: bookID, Kind: kind, CreatedAt: now}
	if err := r.AddInteraction(ctx, in); err != nil {
		return nil, false, err
	}
	return in, true, nil
}

func (r *Repository) loadInteractions(ctx context.Context, key string) ([]*core.Interaction, error) {
	raw, err := r.kv.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load interactions %s: %w", key, err)
	}
	out := make([]*core.Interaction, 0, len(raw))
	for field, data := range raw {
		var in core.Interaction
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode interaction %s: %w", field, err)
		}
		out = append(out, &in)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// InteractionsByUser 实现 core.InteractionRepository，按时间升序。
func (r *Repository) InteractionsByUser(ctx context.Context, userID int64) ([]*core.Interaction, error) {
	return r.loadInteractions(ctx, r.userKey(userID))
}

// InteractionsByBook 实现 core.InteractionRepository，按时间升序。
func (r *Repository) InteractionsByBook(ctx context.Context, bookID int64) ([]*core.Interaction, error) {
	return r.loadInteractions(ctx, r.bookKey(bookID))
}

// InteractionCounts 实现 core.InteractionRepository。
func (r *Repository) InteractionCounts(ctx context.Context) (map[int64]int, error) {
	members, err := r.kv.ZRange(ctx, r.popularityKey(), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("load popularity: %w", err)
	}
	counts := make(map[int64]int, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		score, err := r.kv.ZScore(ctx, r.popularityKey(), m)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		counts[id] = int(score)
	}
	return counts, nil
}
