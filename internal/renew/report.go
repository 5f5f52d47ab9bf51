package renew

import (
	"fmt"
	"strings"

	"arcrenew/internal/models"

	"github.com/mattn/go-runewidth"
)

// RenderProductMessage formats the per-product notification in the
// panel's locale.
func RenderProductMessage(r models.RenewalResult) string {
	if r.Success {
		return fmt.Sprintf("ArcticCloud VPS续期提醒：\n\n✅%s已成功续期！😋\n📅 到期时间: %s",
			r.Name, r.ExpiryAfter)
	}

	msg := fmt.Sprintf("ArcticCloud VPS续期提醒：\n\n❌%s续期失败！😭\n📅 当前到期时间: %s",
		r.Name, r.ExpiryBefore)

	if r.Reason != models.ReasonNone {
		msg += fmt.Sprintf("\n原因: %s", r.Reason)
	}

	return msg
}

// RenderSummary formats the run summary: totals plus one aligned table
// row per product in processing order.
func RenderSummary(s *models.RunSummary) string {
	var sb strings.Builder

	sb.WriteString("ArcticCloud VPS续期汇总：\n\n")
	sb.WriteString(fmt.Sprintf("📊 总计: %d 个产品\n", s.Total()))
	sb.WriteString(fmt.Sprintf("✅ 成功: %d 个\n", s.SuccessCount))
	sb.WriteString(fmt.Sprintf("❌ 失败: %d 个\n", s.FailCount))

	if len(s.Results) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")

	rows := [][]string{{"产品", "状态", "到期时间"}}

	for _, r := range s.Results {
		status := "✅ 成功"
		expiry := r.ExpiryAfter.String()

		if !r.Success {
			status = "❌ 失败"
			expiry = r.ExpiryBefore.String()
		}

		rows = append(rows, []string{r.Name, status, expiry})
	}

	sb.WriteString(renderAlignedTable(rows))

	return sb.String()
}

// renderAlignedTable pads columns by display width so CJK names line up
// in monospace output.
func renderAlignedTable(rows [][]string) string {
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for _, row := range rows {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	var sb strings.Builder

	for _, row := range rows {
		sb.WriteString("|")

		for i := 0; i < colCount; i++ {
			content := ""
			if i < len(row) {
				content = row[i]
			}

			sb.WriteString(" ")
			sb.WriteString(content)

			if padding := colWidths[i] - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
