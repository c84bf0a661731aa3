// Package sqlutil holds the row plumbing shared by the database/sql backends.
package sqlutil

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanLink reads the columns id, code, target_url, total_clicks,
// last_clicked_at, created_at in that order.
func ScanLink(s Scanner) (*domain.Link, error) {
	var (
		link        domain.Link
		lastClicked sql.NullTime
	)
	if err := s.Scan(&link.ID, &link.Code, &link.TargetURL, &link.TotalClicks, &lastClicked, &link.CreatedAt); err != nil {
		return nil, err
	}
	link.CreatedAt = link.CreatedAt.UTC()
	if lastClicked.Valid {
		t := lastClicked.Time.UTC()
		link.LastClickedAt = &t
	}
	return &link, nil
}

// CollectLinks drains rows and closes them. It never returns a nil slice on
// success so the JSON encoding is [] rather than null.
func CollectLinks(rows *sql.Rows) ([]domain.Link, error) {
	defer rows.Close()

	links := make([]domain.Link, 0)
	for rows.Next() {
		link, err := ScanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}
	return links, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a literal substring into a LIKE pattern using
// backslash as the escape character.
func ContainsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
