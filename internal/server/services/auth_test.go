package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/auth"
	"github.com/aleksvdm/gopherchat/internal/server/config"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/password"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/conversations"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/messages"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/modelconfigs"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/refreshtokens"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func newTestHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher()
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func mustHash(t *testing.T, plaintext string) string {
	t.Helper()
	hash, err := password.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	return hash
}

func activeUser(id int64, email, hash string, scopes string) *models.User {
	return &models.User{
		ID:           id,
		Email:        email,
		Name:         "tester",
		PasswordHash: hash,
		Groups:       []models.Group{{ID: 1, Name: "user", Scopes: scopes, Active: true}},
	}
}

// --- fakes ---

type fakeUsersRepo struct {
	findOut *models.User
	findErr error

	emailExists    bool
	emailExistsErr error

	createdUser *models.User
	createErr   error

	updatedName  string
	updatedEmail string
	updatedHash  string
	updateErr    error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdUser = u
	return u, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeUsersRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	return f.emailExists, f.emailExistsErr
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, id int64, name string) error {
	f.updatedName = name
	return f.updateErr
}

func (f *fakeUsersRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	f.updatedEmail = email
	return f.updateErr
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	f.updatedHash = hash
	return f.updateErr
}

type fakeRefreshRepo struct {
	insertCalls int
	insertedJTI string
	insertErr   error

	checkLiveErr error

	revokeOneCalls int
	revokedJTI     string
	revokeOneErr   error

	revokeAllCalls int
	revokeAllErr   error
}

func (f *fakeRefreshRepo) Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	f.insertCalls++
	f.insertedJTI = jti
	return f.insertErr
}

func (f *fakeRefreshRepo) CheckLive(ctx context.Context, jti string, userID int64) error {
	return f.checkLiveErr
}

func (f *fakeRefreshRepo) RevokeOne(ctx context.Context, jti string, userID int64) error {
	f.revokeOneCalls++
	f.revokedJTI = jti
	return f.revokeOneErr
}

func (f *fakeRefreshRepo) RevokeAll(ctx context.Context, userID int64) error {
	f.revokeAllCalls++
	return f.revokeAllErr
}

// fakeRepoManager hands out the same fakes regardless of the db handle, so
// transactional flows exercise the real WithTx against sqlmock.
type fakeRepoManager struct {
	users   *fakeUsersRepo
	refresh *fakeRefreshRepo
	convos  conversations.Repository
	msgs    messages.Repository
	mcs     modelconfigs.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository { return m.users }

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refresh }

func (m *fakeRepoManager) Conversations(db dbx.DBTX) conversations.Repository { return m.convos }

func (m *fakeRepoManager) Messages(db dbx.DBTX) messages.Repository { return m.msgs }

func (m *fakeRepoManager) ModelConfigs(db dbx.DBTX) modelconfigs.Repository { return m.mcs }

// --- tests ---

func TestLogin_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	hash := mustHash(t, "pw123")
	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: activeUser(7, "a@b.c", hash, "chat extra")},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	mock.ExpectBegin()
	mock.ExpectCommit()

	pair, err := s.Login(context.Background(), "a@b.c", "pw123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.UserID != 7 {
		t.Fatalf("userID mismatch: %d", pair.UserID)
	}
	if rm.refresh.insertCalls != 1 {
		t.Fatalf("expected one refresh record, got %d", rm.refresh.insertCalls)
	}

	payload, err := s.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if len(payload.Scopes) != 2 || payload.Scopes[0] != "chat" || payload.Scopes[1] != "extra" {
		t.Fatalf("scopes mismatch: %v", payload.Scopes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findErr: common.ErrNotFound},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	_, err := s.Login(context.Background(), "ghost@b.c", "pw")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if rm.refresh.insertCalls != 0 {
		t.Fatalf("no tokens may be issued for unknown users")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash := mustHash(t, "right")
	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: activeUser(7, "a@b.c", hash, "chat")},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	_, err := s.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash := mustHash(t, "pw123")
	user := activeUser(7, "a@b.c", hash, "chat")
	user.Groups[0].Active = false

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: user},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	_, err := s.Login(context.Background(), "a@b.c", "pw123")
	if !errors.Is(err, common.ErrUserDisabled) {
		t.Fatalf("want ErrUserDisabled, got %v", err)
	}
}

// Credentials are checked before the disabled flag, so a wrong password on a
// disabled account still reads as invalid credentials.
func TestLogin_DisabledUserWrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := activeUser(7, "a@b.c", mustHash(t, "right"), "chat")
	user.Groups[0].Active = false

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: user},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	_, err := s.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
}

func TestRefresh_Additive(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	mock.ExpectBegin()
	mock.ExpectCommit()

	payload := &auth.RefreshToken{UserID: 7, JTI: "old-jti", Scopes: []string{"chat"}}
	pair, err := s.Refresh(context.Background(), payload, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.UserID != 7 {
		t.Fatalf("userID mismatch: %d", pair.UserID)
	}

	// a refresh issues a new record and leaves the old one alone
	if rm.refresh.insertCalls != 1 {
		t.Fatalf("expected one new refresh record, got %d", rm.refresh.insertCalls)
	}
	if rm.refresh.revokeOneCalls != 0 || rm.refresh.revokeAllCalls != 0 {
		t.Fatalf("refresh must not revoke anything")
	}
	if rm.refresh.insertedJTI == "old-jti" {
		t.Fatalf("new record reused the old jti")
	}
}

func TestRefresh_ExtraScopesMustBeGranted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	payload := &auth.RefreshToken{UserID: 7, JTI: "j", Scopes: []string{"chat"}}
	_, err := s.Refresh(context.Background(), payload, []string{"admin"})
	if !errors.Is(err, common.ErrInsufficientPermissions) {
		t.Fatalf("want ErrInsufficientPermissions, got %v", err)
	}
	if rm.refresh.insertCalls != 0 {
		t.Fatalf("no record may be written on scope rejection")
	}
}

func TestRefresh_RevokedToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{},
		refresh: &fakeRefreshRepo{checkLiveErr: common.ErrInvalidRefreshToken},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	payload := &auth.RefreshToken{UserID: 7, JTI: "revoked", Scopes: []string{"chat"}}
	_, err := s.Refresh(context.Background(), payload, nil)
	if !errors.Is(err, common.ErrInvalidRefreshToken) {
		t.Fatalf("want ErrInvalidRefreshToken, got %v", err)
	}
}

func TestLogout_RevokesOne(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	if err := s.Logout(context.Background(), "jti-1", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rm.refresh.revokeOneCalls != 1 || rm.refresh.revokedJTI != "jti-1" {
		t.Fatalf("expected RevokeOne(jti-1), got %d calls jti=%q",
			rm.refresh.revokeOneCalls, rm.refresh.revokedJTI)
	}
}

func TestChangePassword_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: activeUser(7, "a@b.c", mustHash(t, "old"), "chat")},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := s.ChangePassword(context.Background(), 7, "brand-new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rm.users.updatedHash == "" {
		t.Fatalf("password hash was not updated")
	}
	ok, err := password.Verify("brand-new", rm.users.updatedHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not match the new password: ok=%v err=%v", ok, err)
	}
	if rm.refresh.revokeAllCalls != 1 {
		t.Fatalf("expected every session revoked, got %d calls", rm.refresh.revokeAllCalls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestChangePassword_SameValue(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: activeUser(7, "a@b.c", mustHash(t, "keep"), "chat")},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	err := s.ChangePassword(context.Background(), 7, "keep")
	if !errors.Is(err, common.ErrUserPasswordSame) {
		t.Fatalf("want ErrUserPasswordSame, got %v", err)
	}
	if rm.refresh.revokeAllCalls != 0 {
		t.Fatalf("sessions must stay intact on a rejected change")
	}
}

func TestChangePassword_RevokeFailureRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{findOut: activeUser(7, "a@b.c", mustHash(t, "old"), "chat")},
		refresh: &fakeRefreshRepo{revokeAllErr: errors.New("db down")},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	mock.ExpectBegin()
	mock.ExpectRollback()

	if err := s.ChangePassword(context.Background(), 7, "brand-new"); err == nil {
		t.Fatalf("expected error when revocation fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerifyRefresh_ChecksStore(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:   &fakeUsersRepo{},
		refresh: &fakeRefreshRepo{},
	}
	s := NewAuthService(db, rm, testConfig(), newTestHasher(t))

	codec := auth.NewCodec([]byte("test-secret"), time.Hour, 24*time.Hour)
	tok, jti, _, err := codec.IssueRefresh(7, []string{"chat"})
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}

	payload, err := s.VerifyRefresh(context.Background(), tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.JTI != jti || payload.UserID != 7 {
		t.Fatalf("payload mismatch: %+v", payload)
	}

	rm.refresh.checkLiveErr = common.ErrInvalidRefreshToken
	if _, err := s.VerifyRefresh(context.Background(), tok); !errors.Is(err, common.ErrInvalidRefreshToken) {
		t.Fatalf("want ErrInvalidRefreshToken, got %v", err)
	}
}

// compile-time check that the fakes satisfy the repository contracts
var (
	_ users.Repository         = (*fakeUsersRepo)(nil)
	_ refreshtokens.Repository = (*fakeRefreshRepo)(nil)
)
