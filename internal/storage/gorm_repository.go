package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/nudge/internal/model"
)

// GormRepository is the gorm-backed Repository. It shares the schema and
// migrations of SQLiteRepository, so either driver can open the same file.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func OpenGorm(dsn string, log *slog.Logger) (*GormRepository, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	dbLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := MigrateUp(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &GormRepository{db: db, now: time.Now}, nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) CreateTask(ctx context.Context, in model.Task) error {
	row := taskToRow(in)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *GormRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	var row TaskRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return row.toModel()
}

func (r *GormRepository) UpdateTask(ctx context.Context, in model.Task) error {
	row := taskToRow(in)
	res := r.db.WithContext(ctx).Model(&TaskRow{}).Where("id = ?", row.ID).Select("*").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) DeleteTask(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&TaskRow{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&TaskRow{})
	if filter.ActiveOnly {
		q = q.Where("is_completed = ?", false)
	}
	q = q.Order("reminder_at ASC").Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []TaskRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *GormRepository) GetSettings(ctx context.Context) (model.Settings, bool, error) {
	var row SettingsRow
	if err := r.db.WithContext(ctx).Where("name = ?", settingsRecordName).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Settings{}, false, nil
		}
		return model.Settings{}, false, err
	}
	settings, err := row.toModel()
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("decode settings: %w", err)
	}
	return settings, true, nil
}

func (r *GormRepository) SaveSettings(ctx context.Context, in model.Settings) error {
	row := settingsToRow(in, r.now())
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
