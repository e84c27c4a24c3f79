package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
)

// RenderBreakdown renders a work breakdown as a numbered tree. Work titles
// carry their price as a right-aligned badge; descriptions marked finished
// by manual override are tagged.
func RenderBreakdown(tree *domain.WorkBreakdown) string {
	if tree == nil || len(tree.Items) == 0 {
		return Dim("No work items.") + "\n"
	}

	type lineInfo struct {
		content string
		badge   string
	}

	var lines []lineInfo
	maxContentWidth := 0
	add := func(content, badge string) {
		lines = append(lines, lineInfo{content: content, badge: badge})
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	for i, it := range tree.Items {
		seq := StyleDim.Render(fmt.Sprintf("%d. ", i+1))
		add(seq+statusPrefix(it.Status)+styledTitle(it.Name, it.Status), StyleBlue.Render(fmt.Sprintf("[ %s ]", Money(it.Price))))

		for j, c := range it.Children {
			prefix := "   " + treeBranch
			if j == len(it.Children)-1 {
				prefix = "   " + treeCorner
			}
			status := c.Status
			if c.ManualOverride {
				status = domain.StepFinished
			}
			badge := ""
			if c.ManualOverride {
				badge = StylePurple.Render("[ override ]")
			}
			add(prefix+statusPrefix(status)+styledTitle(c.Name, status), badge)
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

func statusPrefix(s domain.StepStatus) string {
	switch s {
	case domain.StepFinished:
		return StyleGreen.Render("✔ ")
	case domain.StepInProgress:
		return StyleYellowBold.Render("▶ ")
	default:
		return StyleDim.Render("○ ")
	}
}

func styledTitle(title string, s domain.StepStatus) string {
	switch s {
	case domain.StepFinished:
		return Dim(title)
	case domain.StepInProgress:
		return StyleYellowBold.Render(title)
	default:
		return title
	}
}
