package vault

import (
	"fmt"
	"time"
)

// ShareFile issues a share record for the file, expiring expiryDays from
// now. The record id is a freshly generated unguessable token that also
// serves as the link path segment.
func (s *Store) ShareFile(fileID string, expiryDays int, permission Permission) (ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return ShareRecord{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}
	if expiryDays <= 0 {
		return ShareRecord{}, fmt.Errorf("%w: expiry days must be positive, got %d", ErrInvalidArgument, expiryDays)
	}
	if !permission.Valid() {
		return ShareRecord{}, fmt.Errorf("%w: unknown permission %q", ErrInvalidArgument, permission)
	}

	now := s.now()
	sh := &ShareRecord{
		ID:         s.newToken(),
		FileID:     fileID,
		Permission: permission,
		IssuedAt:   now,
		ExpiresAt:  now.AddDate(0, 0, expiryDays),
	}
	s.shares[sh.ID] = sh
	s.shareOrder = append(s.shareOrder, sh.ID)

	return *sh, nil
}

// Share returns the share record with the given token, expired or not.
func (s *Store) Share(token string) (ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shares[token]
	if !ok {
		return ShareRecord{}, fmt.Errorf("%w: share %q", ErrNotFound, token)
	}
	return *sh, nil
}

// ActiveSharesFor returns the file's share records that are still active
// at the given time, in issuance order.
func (s *Store) ActiveSharesFor(fileID string, now time.Time) ([]ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[fileID]; !ok {
		return nil, fmt.Errorf("%w: file %q", ErrNotFound, fileID)
	}
	var out []ShareRecord
	for _, id := range s.shareOrder {
		if sh := s.shares[id]; sh.FileID == fileID && sh.ActiveAt(now) {
			out = append(out, *sh)
		}
	}
	return out, nil
}

// RevokeShare expires the share immediately. The record is kept so past
// issuance stays auditable; it just stops being active.
func (s *Store) RevokeShare(token string) (ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shares[token]
	if !ok {
		return ShareRecord{}, fmt.Errorf("%w: share %q", ErrInvalidReference, token)
	}
	sh.ExpiresAt = s.now()
	return *sh, nil
}
