package store

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SecurityConfig{},
		&models.PasscodeHistoryEntry{},
		&models.ResetToken{},
	))
	return New(db)
}

func TestSetPasscode_CreatesSingleton(t *testing.T) {
	st := setupTestStore(t)

	_, err := st.GetConfig()
	assert.ErrorIs(t, err, ErrConfigNotFound)

	hash, err := st.SetPasscode("admin@example.com", "Secret123", true)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Secret123", hash)

	cfg, err := st.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.True(t, cfg.Bootstrapped)
	assert.Equal(t, hash, cfg.PasscodeHash)

	// Setting again updates the same row instead of creating a second one.
	_, err = st.SetPasscode("admin@example.com", "Other456", false)
	require.NoError(t, err)

	var count int64
	st.DB().Model(&models.SecurityConfig{}).Count(&count)
	assert.Equal(t, int64(1), count)

	cfg, err = st.GetConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Bootstrapped)
}

func TestVerifyPasscode_LockoutMonotonicity(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.SetPasscode("admin@example.com", "Secret123", false)
	require.NoError(t, err)

	// Failures below the threshold only bump the counter.
	for i := 0; i < MaxFailedAttempts-1; i++ {
		res, err := st.VerifyPasscode("wrong")
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.False(t, res.Locked, "attempt %d should not lock", i+1)
	}

	// The Nth failure locks.
	res, err := st.VerifyPasscode("wrong")
	require.NoError(t, err)
	assert.True(t, res.Locked)
	require.NotNil(t, res.LockedUntil)
	assert.True(t, res.LockedUntil.After(time.Now()))

	// While locked, even the correct passcode is rejected.
	res, err = st.VerifyPasscode("Secret123")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.True(t, res.Locked)
	require.NotNil(t, res.LockedUntil)
}

func TestVerifyPasscode_SuccessResetsCounter(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.SetPasscode("admin@example.com", "Secret123", false)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := st.VerifyPasscode("wrong")
		require.NoError(t, err)
	}

	res, err := st.VerifyPasscode("Secret123")
	require.NoError(t, err)
	assert.True(t, res.OK)

	cfg, err := st.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FailedAttempts)
	assert.Nil(t, cfg.LockedUntil)
}

func TestVerifyPasscode_ExpiredLockUnlocks(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.SetPasscode("admin@example.com", "Secret123", false)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, st.DB().Model(&models.SecurityConfig{}).
		Where("name = ?", models.SecurityConfigKey).
		Updates(map[string]interface{}{"failed_attempts": MaxFailedAttempts, "locked_until": &past}).Error)

	res, err := st.VerifyPasscode("Secret123")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestVerifyPasscode_ExpiredLockResetsCounter(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.SetPasscode("admin@example.com", "Secret123", false)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, st.DB().Model(&models.SecurityConfig{}).
		Where("name = ?", models.SecurityConfigKey).
		Updates(map[string]interface{}{"failed_attempts": MaxFailedAttempts, "locked_until": &past}).Error)

	// A wrong attempt after the window ends is failure 1 of a fresh count,
	// not a continuation of the old one.
	res, err := st.VerifyPasscode("wrong")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.False(t, res.Locked)

	cfg, err := st.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.FailedAttempts)
	assert.Nil(t, cfg.LockedUntil)
}

func TestUpdatePasscode_AppendsHistoryAndClearsBootstrap(t *testing.T) {
	st := setupTestStore(t)
	oldHash, err := st.SetPasscode("admin@example.com", "Secret123", true)
	require.NoError(t, err)

	hash, err := st.UpdatePasscode("NewPass456")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, oldHash, hash)

	cfg, err := st.GetConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Bootstrapped)
	assert.Equal(t, hash, cfg.PasscodeHash)

	// The superseded hash lands in history.
	var entries []models.PasscodeHistoryEntry
	require.NoError(t, st.DB().Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, oldHash, entries[0].PasscodeHash)

	res, err := st.VerifyPasscode("NewPass456")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestIsRecentPasscode(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.SetPasscode("admin@example.com", "Pass-0", false)
	require.NoError(t, err)

	// Rotate through HistoryDepth passcodes: Pass-0..Pass-4 end up in
	// history, Pass-5 stays current.
	for i := 1; i <= HistoryDepth; i++ {
		_, err := st.UpdatePasscode(fmt.Sprintf("Pass-%d", i))
		require.NoError(t, err)
	}

	for i := 0; i <= HistoryDepth; i++ {
		reused, err := st.IsRecentPasscode(fmt.Sprintf("Pass-%d", i))
		require.NoError(t, err)
		assert.True(t, reused, "Pass-%d should be rejected as recent", i)
	}

	reused, err := st.IsRecentPasscode("Brand-New-7")
	require.NoError(t, err)
	assert.False(t, reused)
}

func TestSetRequireFingerprint(t *testing.T) {
	st := setupTestStore(t)

	assert.ErrorIs(t, st.SetRequireFingerprint(true), ErrConfigNotFound)

	_, err := st.SetPasscode("admin@example.com", "Secret123", false)
	require.NoError(t, err)

	require.NoError(t, st.SetRequireFingerprint(true))
	cfg, err := st.GetConfig()
	require.NoError(t, err)
	assert.True(t, cfg.RequireFingerprint)
}
