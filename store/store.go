// Package store 提供 core.KeyValueStore 的实现（内存 / Redis），
// 以及基于它的图书、行为仓储 Repository。
//
// 示例：
//
//	kv := store.NewMemoryStore()
//	repo := store.NewRepository(kv)
//	var books core.BookRepository = repo
//	var interactions core.InteractionRepository = repo
package store
