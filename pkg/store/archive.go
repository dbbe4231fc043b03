package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContactSubmission is an archived contact form.
type ContactSubmission struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Newsletter bool      `json:"newsletter"`
	CreatedAt  time.Time `json:"created_at"`
}

// Archive stores contact submissions and returns the key they were stored
// under.
type Archive interface {
	Put(ctx context.Context, sub ContactSubmission) (string, error)
}

// newKey returns a sortable, collision-resistant key for a submission.
func newKey(prefix string, at time.Time) string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s%s/%s-%s.json", prefix, at.UTC().Format("2006/01/02"), at.UTC().Format("150405.000"), hex.EncodeToString(b[:]))
}

// MemoryArchive keeps submissions in memory.
type MemoryArchive struct {
	mu      sync.Mutex
	entries map[string]ContactSubmission
	order   []string
}

// NewMemoryArchive returns an empty MemoryArchive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{entries: make(map[string]ContactSubmission)}
}

// Put stores sub.
func (m *MemoryArchive) Put(ctx context.Context, sub ContactSubmission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := newKey("contact/", sub.CreatedAt)
	m.entries[key] = sub
	m.order = append(m.order, key)
	return key, nil
}

// All returns the stored submissions in insertion order.
func (m *MemoryArchive) All() []ContactSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ContactSubmission, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.entries[k])
	}
	return out
}

// PutObjectAPI is the subset of the S3 client used by S3Archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores each submission as a JSON object in an S3 bucket.
//
// Example usage:
//
//	client := store.NewS3Client(store.S3Config{Region: "ap-south-1"})
//	archive := store.NewS3Archive(client, "medihome-contact", "contact/")
type S3Archive struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Archive creates an archive writing to bucket under prefix.
func NewS3Archive(client PutObjectAPI, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads sub and returns its object key.
func (a *S3Archive) Put(ctx context.Context, sub ContactSubmission) (string, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("store: encode submission: %w", err)
	}

	key := newKey(a.prefix, sub.CreatedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"subject":    sub.Subject,
			"created-at": sub.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("store: s3 upload failed: %w", err)
	}
	return key, nil
}
