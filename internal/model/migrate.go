package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей планировочного ядра.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&TenantSettings{},
		&ServiceOffering{},
		&Appointment{},
		&MessageLog{},
	)
}
