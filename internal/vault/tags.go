package vault

import "fmt"

// ToggleFileTag flips the tag's presence on the file's tag set: present
// tags are removed, absent tags are added. Calling it twice returns the
// set to its original state.
func (s *Store) ToggleFileTag(fileID, tagID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}
	if _, ok := s.tags[tagID]; !ok {
		return File{}, fmt.Errorf("%w: tag %q", ErrInvalidReference, tagID)
	}

	if contains(f.TagIDs, tagID) {
		f.TagIDs = remove(f.TagIDs, tagID)
	} else {
		f.TagIDs = append(f.TagIDs, tagID)
	}
	return copyFile(f), nil
}

// AddTagToFile attaches the tag to the file. Attaching a tag that is
// already present is a no-op.
func (s *Store) AddTagToFile(fileID, tagID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}
	if _, ok := s.tags[tagID]; !ok {
		return File{}, fmt.Errorf("%w: tag %q", ErrInvalidReference, tagID)
	}

	if !contains(f.TagIDs, tagID) {
		f.TagIDs = append(f.TagIDs, tagID)
	}
	return copyFile(f), nil
}

// RemoveTagFromFile detaches the tag from the file. Removing a tag that
// is not present is a no-op.
func (s *Store) RemoveTagFromFile(fileID, tagID string) (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return File{}, fmt.Errorf("%w: file %q", ErrInvalidReference, fileID)
	}
	if _, ok := s.tags[tagID]; !ok {
		return File{}, fmt.Errorf("%w: tag %q", ErrInvalidReference, tagID)
	}

	f.TagIDs = remove(f.TagIDs, tagID)
	return copyFile(f), nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
