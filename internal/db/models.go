// Persistence models for the portal. Timestamps are unix seconds; optional
// ones are pointers so they serialize as null rather than zero.
package db

// Role values for User.Role.
const (
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
	RoleClient = "CLIENT"
)

// Upload channels for File.UploadedVia.
const (
	ViaWeb  = "WEB"
	ViaSFTP = "SFTP"
)

// User is a portal account. CLIENTs own jobs; ADMIN and STAFF act on all.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// UserSummary is the owner embed used in job and credential listings.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Job is one mail campaign tracked through the status workflow.
type Job struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	Month        string   `json:"month"`
	Year         int      `json:"year"`
	CampaignName string   `json:"campaignName"`
	Status       string   `json:"status"`
	MailCount    *int64   `json:"mailCount"`
	RatePerPiece *float64 `json:"ratePerPiece"`
	TotalCost    *float64 `json:"totalCost"`
	TaxAmount    *float64 `json:"taxAmount"`
	InvoiceURL   *string  `json:"invoiceUrl"`
	ApprovedAt   *int64   `json:"approvedAt"`
	MailedAt     *int64   `json:"mailedAt"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`

	// Populated by list/get queries, not stored on the row.
	User      *UserSummary `json:"user,omitempty"`
	FileCount int          `json:"fileCount"`
}

// File is one uploaded artifact tied to a job and a file-type slot.
type File struct {
	ID           string `json:"id"`
	JobID        string `json:"jobId"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	FileType     string `json:"fileType"`
	FilePath     string `json:"-"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType"`
	UploadedVia  string `json:"uploadedVia"`
	UploadedAt   int64  `json:"uploadedAt"`
}

// ProofEvent is an append-only review action on a job.
type ProofEvent struct {
	ID        string `json:"id"`
	JobID     string `json:"jobId"`
	Action    string `json:"action"`
	Notes     string `json:"notes"`
	CreatedAt int64  `json:"createdAt"`
}

// SftpCredential is a login for the file-drop realm, owned by a portal user.
type SftpCredential struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
	LastUsed     *int64 `json:"lastUsed"`
	CreatedAt    int64  `json:"createdAt"`

	User *UserSummary `json:"user,omitempty"`
}
