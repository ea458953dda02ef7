package security

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

// OrderNumberPrefix は注文番号の固定プレフィックス。
const OrderNumberPrefix = "CG"

// GenerateOrderNumber は共有しやすい注文番号を生成する。
// 形式: "CG" + 現在時刻（ミリ秒）の36進表記 + ランダム8文字、すべて大文字。
// 時刻と乱数に基づくため実用上は衝突しないが、一意性は保証しない。
// 厳密な一意性が必要な場合は保存先の一意制約で担保すること。
func GenerateOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return OrderNumberPrefix + strings.ToUpper(ts) + rand.Text()[:8]
}
