// Package export renders console collections as XLSX workbooks and PDF tables.
package export

import (
	"strconv"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/shared"
)

const dateLayout = "02/01/2006 15:04"

// moneyFields are rendered with thousands grouping and a unit.
var moneyFields = map[string]string{
	"price":  shared.UnitVND,
	"income": shared.UnitVND,
	"amount": shared.UnitCoin,
}

// cell is one rendered value. Numeric cells keep the number for spreadsheets.
type cell struct {
	text    string
	number  float64
	numeric bool
}

func render(d entity.Descriptor, it listing.Item, col entity.Column) cell {
	switch {
	case col.Key == "status":
		return cell{text: it.Status.Text}
	case col.Key == "id":
		return cell{text: it.ID}
	case d.IsDate(col.Key):
		if t, ok := it.Time(col.Key); ok {
			return cell{text: t.Format(dateLayout)}
		}
		return cell{}
	case d.IsNumeric(col.Key):
		n, _ := it.Number(col.Key)
		if unit, ok := moneyFields[col.Key]; ok {
			return cell{text: shared.NewMoney(n, unit).String(), number: n, numeric: true}
		}
		return cell{text: strconv.FormatFloat(n, 'f', -1, 64), number: n, numeric: true}
	}
	return cell{text: it.Field(col.Key)}
}

func title(e entity.Entity) string {
	switch e {
	case entity.User:
		return "Danh sách người dùng"
	case entity.Game:
		return "Danh sách game"
	case entity.Order:
		return "Danh sách đơn thuê"
	case entity.Gamer:
		return "Danh sách game thủ"
	case entity.Report:
		return "Danh sách báo cáo"
	case entity.Deposit:
		return "Lịch sử nạp tiền"
	case entity.Withdrawal:
		return "Lịch sử rút tiền"
	}
	return string(e)
}
