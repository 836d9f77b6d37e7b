package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// busyMarkers are substrings of SQLite errors raised while another
// connection or process holds the write lock.
var busyMarkers = []string{
	"database is locked",
	"sqlite_busy",
	"sqlite_locked",
	"database table is locked",
}

// IsTransient reports whether err is worth retrying: Postgres errors pgconn
// marks safe to retry, timeouts, refused or reset connections, and SQLite
// lock contention.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 57P03 cannot_connect_now, 40001 serialization_failure,
		// 40P01 deadlock_detected.
		switch pgErr.Code {
		case "57P03", "40001", "40P01":
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range busyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
