// Package guestbook appends and lists entries stored as rows of a
// single xlsx object in the blob store. Every append is a full
// download-modify-upload cycle; two concurrent appends race between
// download and upload and the last write wins. The storage layer has
// no conditional puts, so lost updates are accepted here the same way
// the rest of the stack accepts them.
package guestbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guestbook-api/blob"
	"guestbook-api/ratelimit"

	"go.uber.org/zap"
)

// ErrThrottled is returned when a client submits again before its
// cooldown window expired.
var ErrThrottled = errors.New("too many requests")

// Submission is one parsed form post. Honeypot carries the value of
// the hidden decoy field, non-empty for automated submitters.
type Submission struct {
	Name      string
	Message   string
	Timestamp string
	Honeypot  string
}

type Entry struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

type AppendResult struct {
	URL       string
	Timestamp string
}

type ListResult struct {
	Entries []Entry
	URL     string
}

type Service struct {
	store    blob.Store
	limiter  ratelimit.Store
	filename string
}

func NewService(store blob.Store, limiter ratelimit.Store, filename string) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		filename: filename,
	}
}

// Filename returns the storage name of the guestbook document.
func (s *Service) Filename() string {
	return s.filename
}

// Append adds one row to the guestbook document. Honeypot submissions
// report success without touching storage so bots can't tell they were
// dropped. The timestamp is taken verbatim when the caller supplied
// one, otherwise stamped here.
func (s *Service) Append(ctx context.Context, sub Submission, clientKey string) (*AppendResult, error) {
	timestamp := sub.Timestamp
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if sub.Honeypot != "" {
		zap.L().Info("Dropped honeypot submission", zap.String("client", clientKey))
		return &AppendResult{Timestamp: timestamp}, nil
	}

	allowed, err := s.limiter.Allow(clientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit, %w", err)
	}

	if !allowed {
		return nil, ErrThrottled
	}

	wb, err := s.openDocument(ctx)
	if err != nil {
		return nil, err
	}
	defer wb.close()

	err = wb.appendRow(timestamp, sub.Name, sub.Message)
	if err != nil {
		return nil, err
	}

	data, err := wb.bytes()
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Put(ctx, s.filename, bytes.NewReader(data), blob.PutOptions{
		ContentType:   xlsxContentType,
		ContentLength: int64(len(data)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload document, %w", err)
	}

	return &AppendResult{
		URL:       obj.URL,
		Timestamp: timestamp,
	}, nil
}

// Entries decodes the guestbook document into entries, preserving row
// order. A missing document yields an empty list; an undecodable one
// yields an empty list plus the raw document URL so callers can still
// link to it.
func (s *Service) Entries(ctx context.Context) (*ListResult, error) {
	doc, found, err := s.locate(ctx)
	if err != nil {
		return nil, err
	}

	if !found {
		return &ListResult{Entries: []Entry{}}, nil
	}

	result := &ListResult{Entries: []Entry{}, URL: doc.URL}

	data, err := s.store.Download(ctx, s.filename)
	if err != nil {
		zap.L().Warn("Failed to download guestbook document", zap.Error(err))
		return result, nil
	}

	wb, err := loadWorkbook(data)
	if err != nil {
		zap.L().Warn("Guestbook document is not decodable", zap.Error(err))
		return result, nil
	}
	defer wb.close()

	rows, err := wb.rows()
	if err != nil {
		zap.L().Warn("Failed to read guestbook rows", zap.Error(err))
		return result, nil
	}

	for i, row := range rows {
		// Row 1 is the header
		if i == 0 {
			continue
		}

		entry := Entry{
			Timestamp: cell(row, 0),
			Name:      cell(row, 1),
			Message:   cell(row, 2),
		}

		if entry.Name == "" && entry.Message == "" {
			continue
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// openDocument downloads and decodes the guestbook document, starting
// a fresh one with just the header row when it's missing or corrupt.
func (s *Service) openDocument(ctx context.Context) (*workbook, error) {
	_, found, err := s.locate(ctx)
	if err != nil {
		return nil, err
	}

	if found {
		data, err := s.store.Download(ctx, s.filename)
		if err == nil {
			wb, err := loadWorkbook(data)
			if err == nil {
				return wb, nil
			}

			zap.L().Warn("Guestbook document is corrupt, starting fresh", zap.Error(err))
		} else {
			zap.L().Warn("Failed to download guestbook document, starting fresh", zap.Error(err))
		}
	}

	return newWorkbook()
}

func (s *Service) locate(ctx context.Context) (blob.Object, bool, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return blob.Object{}, false, fmt.Errorf("failed to list objects, %w", err)
	}

	for _, obj := range objects {
		if strings.EqualFold(obj.Name, s.filename) {
			return obj, true, nil
		}
	}

	return blob.Object{}, false, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}

	return row[i]
}
