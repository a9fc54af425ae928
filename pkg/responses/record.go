package responses

import "time"

// Record is one stored submission as returned by the store.
type Record struct {
	ID         int64     `json:"id"`
	Form       int64     `json:"form"`
	Data       Data      `json:"data"`
	FileUpload string    `json:"file_upload,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
