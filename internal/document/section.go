package document

// Section is a contiguous, indentation-scoped range under one key or list item.
// End is exclusive and excludes trailing blank and comment lines.
type Section struct {
	Key    string
	Start  int
	End    int
	Indent int
}

// Contains reports whether index lies inside the section body or header.
func (section Section) Contains(index int) bool {
	return index >= section.Start && index < section.End
}

// SectionAt scopes the section opened by the key or list item at start.
func (document *Document) SectionAt(start int) (Section, bool) {
	if start < 0 || start >= len(document.lines) {
		return Section{}, false
	}
	header := document.lines[start]
	if header.Tag != TagKey && header.Tag != TagListItem {
		return Section{}, false
	}

	key, _ := header.Key()
	if header.Tag == TagListItem {
		key, _, _ = header.ItemKey()
	}

	section := Section{Key: key, Start: start, End: start + 1, Indent: header.Indent}
	compactSequence := false
	for index := start + 1; index < len(document.lines); index++ {
		line := document.lines[index]
		if !line.IsContent() {
			continue
		}
		if line.Indent > header.Indent {
			section.End = index + 1
			continue
		}
		// A block sequence may sit at its parent key's indentation.
		if header.Tag == TagKey && len(header.Value()) == 0 && line.Tag == TagListItem && line.Indent == header.Indent {
			if section.End == start+1 || compactSequence {
				compactSequence = true
				section.End = index + 1
				continue
			}
		}
		break
	}
	return section, true
}

// ChildIndent returns the indentation of the first content line in the section body, or -1.
func (document *Document) ChildIndent(section Section) int {
	for index := section.Start + 1; index < section.End; index++ {
		if document.lines[index].IsContent() {
			return document.lines[index].Indent
		}
	}
	return -1
}

// Children returns the direct child key sections of section.
func (document *Document) Children(section Section) []Section {
	childIndent := document.ChildIndent(section)
	if childIndent < 0 {
		return nil
	}
	var children []Section
	for index := section.Start + 1; index < section.End; index++ {
		line := document.lines[index]
		if line.Tag != TagKey || line.Indent != childIndent {
			continue
		}
		if child, scoped := document.SectionAt(index); scoped {
			children = append(children, child)
			index = child.End - 1
		}
	}
	return children
}

// Items returns the direct list item sections of section.
func (document *Document) Items(section Section) []Section {
	childIndent := document.ChildIndent(section)
	if childIndent < 0 {
		return nil
	}
	var items []Section
	for index := section.Start + 1; index < section.End; index++ {
		line := document.lines[index]
		if line.Tag != TagListItem || line.Indent != childIndent {
			continue
		}
		if item, scoped := document.SectionAt(index); scoped {
			items = append(items, item)
			index = item.End - 1
		}
	}
	return items
}

// Child finds the direct child key section named key.
func (document *Document) Child(section Section, key string) (Section, bool) {
	for _, child := range document.Children(section) {
		if child.Key == key {
			return child, true
		}
	}
	return Section{}, false
}

// ItemChildren returns the keys of a list item mapping, including the key on the item line itself.
func (document *Document) ItemChildren(item Section) []Section {
	header := document.lines[item.Start]
	itemIndent := header.ItemIndent()
	var children []Section
	if key, _, isMapping := header.ItemKey(); isMapping {
		inline := Section{Key: key, Start: item.Start, End: item.Start + 1, Indent: itemIndent}
		for index := item.Start + 1; index < item.End; index++ {
			line := document.lines[index]
			if !line.IsContent() {
				continue
			}
			if line.Indent <= itemIndent {
				break
			}
			inline.End = index + 1
		}
		children = append(children, inline)
	}
	for index := item.Start + 1; index < item.End; index++ {
		line := document.lines[index]
		if line.Tag != TagKey || line.Indent != itemIndent {
			continue
		}
		if child, scoped := document.SectionAt(index); scoped {
			children = append(children, child)
			index = child.End - 1
		}
	}
	return children
}

// ItemChild finds a key of a list item mapping.
func (document *Document) ItemChild(item Section, key string) (Section, bool) {
	for _, child := range document.ItemChildren(item) {
		if child.Key == key {
			return child, true
		}
	}
	return Section{}, false
}

// TopLevel finds the first key named key at the shallowest indentation of the document.
func (document *Document) TopLevel(key string) (Section, bool) {
	sections := document.TopLevelAll(key)
	if len(sections) == 0 {
		return Section{}, false
	}
	return sections[0], true
}

// TopLevelAll returns every key named key at the shallowest indentation of the document.
func (document *Document) TopLevelAll(key string) []Section {
	rootIndent := -1
	for _, line := range document.lines {
		if line.IsContent() {
			rootIndent = line.Indent
			break
		}
	}
	if rootIndent < 0 {
		return nil
	}
	var sections []Section
	for index, line := range document.lines {
		if line.Tag != TagKey || line.Indent != rootIndent {
			continue
		}
		if lineKey, _ := line.Key(); lineKey == key {
			if section, scoped := document.SectionAt(index); scoped {
				sections = append(sections, section)
			}
		}
	}
	return sections
}

// Find walks a key path from the top level, e.g. Find("on", "push", "branches").
func (document *Document) Find(path ...string) (Section, bool) {
	if len(path) == 0 {
		return Section{}, false
	}
	section, found := document.TopLevel(path[0])
	for _, key := range path[1:] {
		if !found {
			return Section{}, false
		}
		section, found = document.Child(section, key)
	}
	return section, found
}

// FindAll returns every key section named key anywhere in the document, in order.
func (document *Document) FindAll(key string) []Section {
	var sections []Section
	for index, line := range document.lines {
		if lineKey, isKey := line.Key(); isKey && lineKey == key {
			if section, scoped := document.SectionAt(index); scoped {
				sections = append(sections, section)
			}
		}
	}
	return sections
}

// Slice returns the contents of lines [start, end).
func (document *Document) Slice(start int, end int) []string {
	start = clampIndex(start, len(document.lines))
	end = clampIndex(end, len(document.lines))
	contents := make([]string, 0, end-start)
	for index := start; index < end; index++ {
		contents = append(contents, document.lines[index].Content())
	}
	return contents
}
