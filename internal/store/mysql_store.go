package store

import (
	"fmt"
	"time"

	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/evyataryagoni/ipgeo/ipapi"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LookupHistoryModel is the GORM model for the lookup_history table
type LookupHistoryModel struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Target           string    `gorm:"column:target;size:253;index:idx_target_time"`
	Encrypted        bool      `gorm:"column:encrypted"`
	LookedUpAt       time.Time `gorm:"column:looked_up_at;index:idx_target_time"`
	Country          string    `gorm:"column:country"`
	CountryCode      string    `gorm:"column:country_code"`
	Region           string    `gorm:"column:region"`
	RegionName       string    `gorm:"column:region_name"`
	City             string    `gorm:"column:city"`
	Zip              string    `gorm:"column:zip"`
	Latitude         float64   `gorm:"column:lat"`
	Longitude        float64   `gorm:"column:lon"`
	Timezone         string    `gorm:"column:timezone"`
	ISP              string    `gorm:"column:isp"`
	Organization     string    `gorm:"column:org"`
	AutonomousSystem string    `gorm:"column:as_name"`
	Mobile           bool      `gorm:"column:mobile"`
	Proxy            bool      `gorm:"column:proxy"`
}

// TableName overrides GORM's pluralized default
func (LookupHistoryModel) TableName() string {
	return "lookup_history"
}

func newHistoryModel(rec models.HistoryRecord) LookupHistoryModel {
	r := rec.Record
	return LookupHistoryModel{
		Target:           rec.Target,
		Encrypted:        rec.Encrypted,
		LookedUpAt:       rec.LookedUpAt,
		Country:          r.Country,
		CountryCode:      r.CountryCode,
		Region:           r.Region,
		RegionName:       r.RegionName,
		City:             r.City,
		Zip:              r.Zip,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Timezone:         r.Timezone,
		ISP:              r.ISP,
		Organization:     r.Organization,
		AutonomousSystem: r.AutonomousSystem,
		Mobile:           r.Mobile,
		Proxy:            r.Proxy,
	}
}

func (m LookupHistoryModel) historyRecord() models.HistoryRecord {
	return models.HistoryRecord{
		Target:     m.Target,
		Encrypted:  m.Encrypted,
		LookedUpAt: m.LookedUpAt,
		Record: ipapi.Record{
			Country:          m.Country,
			CountryCode:      m.CountryCode,
			Region:           m.Region,
			RegionName:       m.RegionName,
			City:             m.City,
			Zip:              m.Zip,
			Latitude:         m.Latitude,
			Longitude:        m.Longitude,
			Timezone:         m.Timezone,
			ISP:              m.ISP,
			Organization:     m.Organization,
			AutonomousSystem: m.AutonomousSystem,
			Mobile:           m.Mobile,
			Proxy:            m.Proxy,
		},
	}
}

// MySQLStore implements Store using MySQL with GORM
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore connects to MySQL and migrates the lookup_history table
//
// dsn format: user:password@tcp(host:port)/dbname?parseTime=true
// parseTime is required for looked_up_at.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	if err := db.AutoMigrate(&LookupHistoryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate lookup_history: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// Append inserts one row
func (s *MySQLStore) Append(rec models.HistoryRecord) error {
	if rec.Target == "" {
		return ErrEmptyTarget
	}

	model := newHistoryModel(rec)
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Recent returns the newest rows for target
func (s *MySQLStore) Recent(target string, limit int) ([]models.HistoryRecord, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if limit <= 0 {
		return []models.HistoryRecord{}, nil
	}

	var rows []LookupHistoryModel
	result := s.db.Where("target = ?", target).
		Order("looked_up_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}

	records := make([]models.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.historyRecord())
	}
	return records, nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
