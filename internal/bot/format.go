package bot

import (
	"fmt"
	"strings"

	"whatevereat/internal/engine"
	"whatevereat/internal/places"
)

func formatRecommendation(rec *engine.Recommendation) string {
	var b strings.Builder

	if rec.RotationReset {
		b.WriteString("🔄 附近的餐廳都抽過一輪了，重新洗牌！\n\n")
	}
	fmt.Fprintf(&b, "🎲 第 %d 次推薦：\n\n", rec.Number)
	fmt.Fprintf(&b, "🍴 %s\n", rec.Venue.Name)

	if rec.Venue.Rating > 0 {
		fmt.Fprintf(&b, "⭐ 評分：%.1f\n", rec.Venue.Rating)
	}
	if rec.Venue.Address != "" {
		fmt.Fprintf(&b, "📍 地址：%s\n", rec.Venue.Address)
	}
	if len(rec.Venue.Categories) > 0 {
		fmt.Fprintf(&b, "🏷️ 類型：%s\n", strings.Join(rec.Venue.Categories, "、"))
	}
	if rec.Venue.PriceTier != places.PriceTierUnknown {
		fmt.Fprintf(&b, "💰 價位：%s\n", priceLabel(rec.Venue.PriceTier))
	}

	b.WriteString("\n")
	b.WriteString(formatOpeningHours(rec.Venue))

	if rec.Venue.MapsURL != "" {
		fmt.Fprintf(&b, "\n\n🔗 地圖：%s", rec.Venue.MapsURL)
	}
	return b.String()
}

func formatOpeningHours(v places.Venue) string {
	var status string
	switch v.Open {
	case places.OpenStateOpen:
		status = "🕒 目前營業中"
	case places.OpenStateClosed:
		status = "🕒 目前休息中"
	default:
		return "營業時間資訊不可用"
	}
	if len(v.Hours) == 0 {
		return status
	}

	var b strings.Builder
	b.WriteString(status)
	b.WriteString("\n\n📅 營業時間：\n")
	for _, line := range v.Hours {
		fmt.Fprintf(&b, "   %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func priceLabel(tier int) string {
	switch tier {
	case 0:
		return "免費"
	case 1:
		return "$"
	case 2:
		return "$$"
	case 3:
		return "$$$"
	case 4:
		return "$$$$"
	default:
		return "未知"
	}
}

func formatLocationConfirm(title, address string) string {
	if title == "" {
		title = "未命名地點"
	}
	var b strings.Builder
	b.WriteString("📍 位置已更新！\n\n")
	fmt.Fprintf(&b, "🏷️ 地點：%s\n", title)
	if address != "" {
		fmt.Fprintf(&b, "📮 地址：%s\n", address)
	}
	b.WriteString("\n我會記住這個位置 30 分鐘，輸入「抽餐廳」就可以開始！")
	return b.String()
}

func formatStatus(st *engine.Status) string {
	if !st.HasSession {
		return "😶 目前沒有記錄您的位置，請先傳送位置給我！"
	}
	var b strings.Builder
	b.WriteString("📍 目前位置：")
	if st.Label != "" {
		b.WriteString(st.Label)
	} else {
		b.WriteString("未命名地點")
	}
	b.WriteString("\n")
	if st.Address != "" {
		fmt.Fprintf(&b, "📮 地址：%s\n", st.Address)
	}
	minutes := st.RemainingSeconds / 60
	seconds := st.RemainingSeconds % 60
	fmt.Fprintf(&b, "⏳ 還會記住 %d 分 %d 秒\n", minutes, seconds)
	fmt.Fprintf(&b, "🎲 已為您推薦過 %d 次", st.Count)
	return b.String()
}
