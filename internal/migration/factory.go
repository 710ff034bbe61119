package migration

import (
	"fmt"

	appconfig "github.com/BaSui01/tripflow/config"
)

// NewMigratorFromConfig creates a migrator from the application configuration.
func NewMigratorFromConfig(cfg *appconfig.Config) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return NewMigratorFromDatabaseConfig(cfg.Database)
}

// NewMigratorFromDatabaseConfig builds the database URL from the config
// fields and creates a migrator for it.
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig) (*DefaultMigrator, error) {
	// MongoDB is schemaless, the history store creates its collection on demand
	if dbCfg.Driver == "mongo" {
		return nil, fmt.Errorf("driver mongo does not use SQL migrations")
	}

	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}

	host, port := dbCfg.Host, dbCfg.Port
	user, password := dbCfg.User, dbCfg.Password
	sslMode := ""
	switch dbType {
	case DatabaseTypePostgres:
		sslMode = dbCfg.SSLMode
	case DatabaseTypeSQLite:
		// Name holds the file path, connection fields do not apply
		host, port, user, password = "", 0, "", ""
	}

	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  BuildDatabaseURL(dbType, host, port, dbCfg.Name, user, password, sslMode),
		TableName:    "schema_migrations",
	})
}

// NewMigratorFromURL creates a migrator from an already-formed database URL.
func NewMigratorFromURL(dbType, dbURL string) (*DefaultMigrator, error) {
	dt, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}
	return NewMigrator(&Config{
		DatabaseType: dt,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	})
}
