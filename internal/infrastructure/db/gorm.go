package db

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loanledger/internal/domain/installment"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/sequence"
	"loanledger/internal/domain/share"
	"loanledger/internal/domain/wallet"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens, sizes the pool and pings. Split out so tests can hand in
// a dialector backed by sqlmock.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table the engine owns, in dependency order.
func Models() []any {
	return []any{
		&loan.Loan{},
		&installment.Installment{},
		&ledger.Transaction{},
		&sequence.Counter{},
		&share.Share{},
		&share.Holding{},
		&share.Transaction{},
		&wallet.Wallet{},
		&wallet.Entry{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
