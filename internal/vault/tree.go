package vault

import "fmt"

// ChildrenOf returns the direct children of the given folder, in
// creation order.
func (s *Store) ChildrenOf(folderID string) ([]Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[folderID]; !ok {
		return nil, fmt.Errorf("%w: folder %q", ErrNotFound, folderID)
	}
	var out []Folder
	for _, id := range s.folderOrder {
		if f := s.folders[id]; f.ParentID == folderID {
			out = append(out, *f)
		}
	}
	return out, nil
}

// DescendantsOf returns the ids of every folder reachable by following
// parent links downward from the given folder. A leaf yields an empty
// result. Traversal carries a visited guard so it terminates even on a
// malformed graph: a cycle stops the walk instead of looping.
func (s *Store) DescendantsOf(folderID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[folderID]; !ok {
		return nil, fmt.Errorf("%w: folder %q", ErrNotFound, folderID)
	}

	children := make(map[string][]string, len(s.folders))
	for _, id := range s.folderOrder {
		f := s.folders[id]
		if f.ParentID != "" {
			children[f.ParentID] = append(children[f.ParentID], f.ID)
		}
	}

	visited := map[string]bool{folderID: true}
	var out []string
	queue := append([]string(nil), children[folderID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)
		queue = append(queue, children[id]...)
	}
	return out, nil
}

// PathTo walks parent links upward from the given folder and returns the
// breadcrumb path, root first and the folder itself last. The path length
// equals the folder's depth plus one.
func (s *Store) PathTo(folderID string) ([]Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.folders[folderID]; !ok {
		return nil, fmt.Errorf("%w: folder %q", ErrNotFound, folderID)
	}

	var path []Folder
	visited := make(map[string]bool)
	for id := folderID; id != ""; {
		f, ok := s.folders[id]
		if !ok || visited[id] {
			break
		}
		visited[id] = true
		path = append([]Folder{*f}, path...)
		id = f.ParentID
	}
	return path, nil
}
