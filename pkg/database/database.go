package database

import (
	"fmt"
	"log"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if AutoMigrateEnabled(cfg.Server.Mode, cfg.ForceMigrate) {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// AutoMigrateEnabled release 模式默认不自动建表，-migrate 标志可强制执行
func AutoMigrateEnabled(mode string, force bool) bool {
	return force || mode != "release"
}

// Migrate 建表。掌握度记录的 (user, course, kc) 唯一索引是懒创建竞态的最终防线
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Course{},
		&model.KnowledgeComponent{},
		&model.Question{},
		&model.MasteryRecord{},
		&model.Attempt{},
		&model.TestSession{},
	)
}
