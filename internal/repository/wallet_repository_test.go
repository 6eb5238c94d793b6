package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ledger-service/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.AssetType{},
		&model.User{},
		&model.Wallet{},
		&model.Transaction{},
		&model.LedgerEntry{},
	))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestResolveCreatesOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := model.User{Username: "alice", Email: "alice@example.com"}
	asset := model.AssetType{Symbol: "GLD", Name: "Gold"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&asset).Error)

	repo := NewWalletRepository(db, testLogger())

	first, err := repo.Resolve(ctx, user.ID, asset.ID)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.Resolve(ctx, user.ID, asset.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Wallet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResolveConcurrentFirstTouch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := model.User{Username: "alice", Email: "alice@example.com"}
	asset := model.AssetType{Symbol: "GLD", Name: "Gold"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&asset).Error)

	repo := NewWalletRepository(db, testLogger())

	const callers = 8
	ids := make(chan uint, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := repo.Resolve(ctx, user.ID, asset.ID)
			if err != nil {
				errs <- err
				return
			}
			ids <- w.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent resolve failed: %v", err)
	}

	seen := make(map[uint]bool)
	for id := range ids {
		seen[id] = true
	}
	require.Len(t, seen, 1, "all callers must resolve the same wallet")

	var count int64
	require.NoError(t, db.Model(&model.Wallet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResolveUnknownUser(t *testing.T) {
	db := newTestDB(t)

	asset := model.AssetType{Symbol: "GLD", Name: "Gold"}
	require.NoError(t, db.Create(&asset).Error)

	repo := NewWalletRepository(db, testLogger())
	_, err := repo.Resolve(context.Background(), 42, asset.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveTreasury(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	asset := model.AssetType{Symbol: "GLD", Name: "Gold"}
	require.NoError(t, db.Create(&asset).Error)

	repo := NewWalletRepository(db, testLogger())

	_, err := repo.ResolveTreasury(ctx, asset.ID)
	require.ErrorIs(t, err, ErrTreasuryNotFound)

	treasury := model.User{Username: "treasury", Email: "treasury@system.local", IsTreasury: true}
	require.NoError(t, db.Create(&treasury).Error)

	wallet, err := repo.ResolveTreasury(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, treasury.ID, wallet.UserID)
}

func TestFindDoesNotCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := model.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&user).Error)

	repo := NewWalletRepository(db, testLogger())
	wallet, err := repo.Find(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Nil(t, wallet)

	var count int64
	require.NoError(t, db.Model(&model.Wallet{}).Count(&count).Error)
	require.Zero(t, count)
}
