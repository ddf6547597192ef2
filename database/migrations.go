package database

import "gorm.io/gorm"

// AutoMigrate creates the payment and refund tables plus the revoked_tokens
// fallback store used when Redis is not configured for token revocation.
// Run in development only; production schema changes are applied manually.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	return db.Exec(
		"CREATE TABLE IF NOT EXISTS revoked_tokens (id VARCHAR(64) PRIMARY KEY, revoked_at DATETIME)",
	).Error
}
