package mysql

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// UploadAccounts implements the upload-account dictionary table plus its
// per-gallery association, using the "catch duplicate-key, re-resolve"
// concurrency-safety primitive since the account name is shared across
// galleries.
type UploadAccounts struct {
	db *sqlx.DB
}

// NewUploadAccounts constructs an UploadAccounts repository over db.
func NewUploadAccounts(db *sqlx.DB) *UploadAccounts { return &UploadAccounts{db: db} }

// getOrInsertAccountID resolves account's dictionary id, inserting a new
// dictionary row on first sighting. Safe under concurrent callers racing
// to insert the same account name.
func (u *UploadAccounts) getOrInsertAccountID(ctx context.Context, account string) (uint32, error) {
	return getOrInsertDictRow(ctx, u.db, "upload_accounts_dbids", "db_account_id", "account_name", account)
}

// Insert associates galleryID with account, creating the dictionary row
// if this is the first gallery to use that account name.
func (u *UploadAccounts) Insert(ctx context.Context, galleryID uint32, account string) error {
	accountID, err := u.getOrInsertAccountID(ctx, account)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO galleries_upload_accounts (db_gallery_id, db_account_id) VALUES (?, ?)`, galleryID, accountID)
	return translateError(err)
}

// Get returns galleryID's upload account name.
func (u *UploadAccounts) Get(ctx context.Context, galleryID uint32) (string, error) {
	var account string
	err := u.db.GetContext(ctx, &account, `
		SELECT ua.account_name
		FROM galleries_upload_accounts gua
		JOIN upload_accounts_dbids ua ON ua.db_account_id = gua.db_account_id
		WHERE gua.db_gallery_id = ?`, galleryID)
	if err != nil {
		return "", translateError(err)
	}
	return account, nil
}
