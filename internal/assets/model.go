package assets

import "time"

type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"

	DefaultNoteCategory = "general"
)

// DefaultHeaders seed a new table.
var DefaultHeaders = []string{"Item", "Price", "Quantity"}

type Asset struct {
	ID          string    `json:"id"`
	OwnerID     int       `json:"ownerId"`
	Name        string    `json:"name"`
	ContentType string    `json:"type"`
	Size        int64     `json:"size"`
	SizeLabel   string    `json:"sizeLabel"`
	Category    Category  `json:"category"`
	BlobKey     string    `json:"-"`
	UploadedAt  time.Time `json:"uploadDate"`
}

type Note struct {
	ID        string    `json:"id"`
	OwnerID   int       `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdDate"`
	UpdatedAt time.Time `json:"updatedDate"`
}

type Table struct {
	ID        string     `json:"id"`
	OwnerID   int        `json:"ownerId"`
	Name      string     `json:"name"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	CreatedAt time.Time  `json:"createdDate"`
	UpdatedAt time.Time  `json:"updatedDate"`
}

func (a Asset) key() string        { return a.ID }
func (a Asset) owner() int         { return a.OwnerID }
func (a Asset) created() time.Time { return a.UploadedAt }
func (n Note) key() string         { return n.ID }
func (n Note) owner() int          { return n.OwnerID }
func (n Note) created() time.Time  { return n.CreatedAt }
func (t Table) key() string        { return t.ID }
func (t Table) owner() int         { return t.OwnerID }
func (t Table) created() time.Time { return t.CreatedAt }

func (a Asset) clone() Asset { return a }
func (n Note) clone() Note   { return n }

func (t Table) clone() Table {
	t.Headers = append([]string(nil), t.Headers...)
	if t.Rows != nil {
		rows := make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = append([]string(nil), r...)
		}
		t.Rows = rows
	}
	return t
}
