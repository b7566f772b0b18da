package convert

import (
	"time"

	"github.com/haierkeys/note-chain-service/pkg/timex"

	"github.com/jinzhu/copier"
)

// StructAssign
// dst 目标结构体，src 源结构体
// 它会把src与dst的相同字段名的值，复制到dst中
func StructAssign(src any, dst any) any {
	copier.Copy(dst, src)
	return dst
}

// TimeConverters 在 timex.Time 与 time.Time 之间双向转换
var TimeConverters = []copier.TypeConverter{
	{
		SrcType: timex.Time{},
		DstType: time.Time{},
		Fn: func(src any) (any, error) {
			return time.Time(src.(timex.Time)), nil
		},
	},
	{
		SrcType: time.Time{},
		DstType: timex.Time{},
		Fn: func(src any) (any, error) {
			return timex.Time(src.(time.Time)), nil
		},
	},
}

// StructAssignTime 与 StructAssign 相同，同时处理 model/dto 的 timex.Time 与 domain 的 time.Time
func StructAssignTime(src any, dst any) any {
	_ = CopyWithConverters(dst, src, TimeConverters...)
	return dst
}

// CopyWithConverters copies src into dst, converting between types with the given converters
// CopyWithConverters 将 src 复制到 dst，使用给定的类型转换器
func CopyWithConverters(dst any, src any, converters ...copier.TypeConverter) error {
	return copier.CopyWithOption(dst, src, copier.Option{
		DeepCopy:   true,
		Converters: converters,
	})
}
