package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect は接続先データベースの種類を表す。
type Dialect string

const (
	// DialectPostgres はPostgreSQL（lib/pqドライバ）を表す。
	DialectPostgres Dialect = "postgres"
	// DialectSQLite はSQLite（go-sqlite3ドライバ）を表す。
	DialectSQLite Dialect = "sqlite3"
)

// DefaultURL はDATABASE_URL未設定時に使用するローカルファイルDBのURL。
const DefaultURL = "sqlite:///./test.db"

// Source はDATABASE_URLを解析した接続情報。
type Source struct {
	Dialect Dialect
	// DSN はsql.Openに渡す接続文字列。
	DSN string
	// MigrateURL はgolang-migrateに渡す接続URL。
	MigrateURL string
}

// ParseURL はDATABASE_URLを解析してSourceを返す。
// postgres:// と postgresql:// はPostgreSQL、
// sqlite://、sqlite3://、file: はSQLiteとして扱う。
// sqlite:///./test.db のようなスラッシュ3つの形式は相対パスとみなす。
func ParseURL(databaseURL string) (Source, error) {
	if databaseURL == "" {
		databaseURL = DefaultURL
	}

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return Source{
			Dialect:    DialectPostgres,
			DSN:        databaseURL,
			MigrateURL: databaseURL,
		}, nil

	case strings.HasPrefix(databaseURL, "sqlite://"):
		// SQLAlchemy形式: sqlite:///relative と sqlite:////absolute
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		return sqliteSource(path)

	case strings.HasPrefix(databaseURL, "sqlite3://"):
		// golang-migrate形式: sqlite3://relative と sqlite3:///absolute
		return sqliteSource(strings.TrimPrefix(databaseURL, "sqlite3://"))

	case strings.HasPrefix(databaseURL, "file:"):
		return sqliteSource(strings.TrimPrefix(databaseURL, "file:"))

	default:
		return Source{}, fmt.Errorf("unsupported database URL scheme: %s", maskScheme(databaseURL))
	}
}

func sqliteSource(path string) (Source, error) {
	if path == "" {
		return Source{}, fmt.Errorf("sqlite database path is empty")
	}
	return Source{
		Dialect:    DialectSQLite,
		DSN:        path,
		MigrateURL: "sqlite3://" + path,
	}, nil
}

// maskScheme はURLのスキーム部分だけを返す（認証情報をログに出さない）。
func maskScheme(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i] + "://..."
	}
	return "***"
}

// Open はSourceに従ってデータベース接続プールを開く。
// sql.Openは接続を試行しないため、実際の接続確認にはdb.Ping()を使用すること。
// SQLiteは同時書き込みでロック競合するため、接続数を1に制限する。
func Open(src Source, maxOpenConns int) (*sql.DB, error) {
	dsn := src.DSN
	if src.Dialect == DialectSQLite {
		dsn = withSQLiteOptions(dsn)
	}

	db, err := sql.Open(string(src.Dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch {
	case src.Dialect == DialectSQLite:
		db.SetMaxOpenConns(1)
	case maxOpenConns > 0:
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}

	return db, nil
}

// withSQLiteOptions はSQLiteのDSNにビジータイムアウトを付与する。
func withSQLiteOptions(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}
