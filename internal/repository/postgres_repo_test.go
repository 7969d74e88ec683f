package repository

import (
	"context"
	"testing"
)

// PostgresCharacterRepoはCharacterRepositoryインターフェースを満たすことを検証
func TestPostgresCharacterRepo_ImplementsInterface(t *testing.T) {
	var _ CharacterRepository = (*PostgresCharacterRepo)(nil)
}

// PostgresMetaRepoはMetaRepositoryインターフェースを満たすことを検証
func TestPostgresMetaRepo_ImplementsInterface(t *testing.T) {
	var _ MetaRepository = (*PostgresMetaRepo)(nil)
}

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresCharacterRepoが正しく初期化されることを検証
func TestNewPostgresCharacterRepo_Initializes(t *testing.T) {
	repo := NewPostgresCharacterRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresMetaRepoが正しく初期化されることを検証
func TestNewPostgresMetaRepo_Initializes(t *testing.T) {
	repo := NewPostgresMetaRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 空のID集合に対するFindByIDsはDBに問い合わせず空を返すことを検証
func TestCharacterRepo_FindByIDs_Empty(t *testing.T) {
	repo := NewPostgresCharacterRepo(nil)

	// dbがnilでもクエリが実行されなければpanicしない
	got, err := repo.FindByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("FindByIDs returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

// 空のID集合に対するDeleteByIDsは0件削除で即座に返ることを検証
func TestCharacterRepo_DeleteByIDs_Empty(t *testing.T) {
	repo := NewPostgresCharacterRepo(nil)

	deleted, err := repo.DeleteByIDs(context.Background(), []string{})
	if err != nil {
		t.Fatalf("DeleteByIDs returned error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

// 空バッチのInsertBatchはトランザクションを開始せず成功することを検証
func TestCharacterRepo_InsertBatch_Empty(t *testing.T) {
	repo := NewPostgresCharacterRepo(nil)

	if err := repo.InsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("InsertBatch returned error: %v", err)
	}
}
