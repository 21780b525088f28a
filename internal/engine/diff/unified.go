package diff

import (
	"strconv"
	"strings"
)

// Unified renders a unified diff between two texts with the given number of
// context lines. Returns the empty string when the texts are equal.
func Unified(oldText, newText, oldName, newName string, contextLines int) string {
	if oldText == newText {
		return ""
	}

	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")
	ops := myers(oldLines, newLines)

	var sb strings.Builder
	sb.WriteString("--- ")
	sb.WriteString(oldName)
	sb.WriteString("\n+++ ")
	sb.WriteString(newName)
	sb.WriteString("\n")

	// Group ops into hunks separated by more than 2*contextLines equal lines.
	i := 0
	for i < len(ops) {
		// Skip to the next change.
		for i < len(ops) && ops[i].kind == opEqual {
			i++
		}
		if i >= len(ops) {
			break
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i
		equalRun := 0
		for end < len(ops) {
			if ops[end].kind == opEqual {
				equalRun++
				if equalRun > 2*contextLines {
					break
				}
			} else {
				equalRun = 0
			}
			end++
		}
		// Trim trailing context beyond contextLines.
		trail := end
		if equalRun > contextLines {
			trail = end - (equalRun - contextLines)
		}

		writeHunk(&sb, oldLines, newLines, ops[start:trail])
		i = end
	}
	return sb.String()
}

func writeHunk(sb *strings.Builder, oldLines, newLines []string, ops []editOp) {
	if len(ops) == 0 {
		return
	}

	oldStart, newStart := ops[0].oldIndex, ops[0].newIndex
	var oldCount, newCount int
	for _, op := range ops {
		switch op.kind {
		case opEqual:
			oldCount++
			newCount++
		case opDelete:
			oldCount++
		case opInsert:
			newCount++
		}
	}

	sb.WriteString("@@ -")
	sb.WriteString(strconv.Itoa(oldStart + 1))
	sb.WriteString(",")
	sb.WriteString(strconv.Itoa(oldCount))
	sb.WriteString(" +")
	sb.WriteString(strconv.Itoa(newStart + 1))
	sb.WriteString(",")
	sb.WriteString(strconv.Itoa(newCount))
	sb.WriteString(" @@\n")

	for _, op := range ops {
		switch op.kind {
		case opEqual:
			sb.WriteString(" ")
			sb.WriteString(oldLines[op.oldIndex])
		case opDelete:
			sb.WriteString("-")
			sb.WriteString(oldLines[op.oldIndex])
		case opInsert:
			sb.WriteString("+")
			sb.WriteString(newLines[op.newIndex])
		}
		sb.WriteString("\n")
	}
}
