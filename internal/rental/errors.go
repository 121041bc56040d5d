package rental

import "errors"

// Kind 预订失败的分类，HTTP 层据此映射状态码。
type Kind int

const (
	KindUnknown      Kind = iota
	KindInvalidInput      // 字段缺失/日期非法/时长<=0
	KindForbidden         // 角色不允许
	KindNotFound          // 车辆/租约不存在
	KindConflict          // 区间与已有租约重叠
	KindStorage           // 存储层失败
)

// Error 携带分类的业务错误。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E 构造业务错误。
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapStorage 包一层存储错误。
func WrapStorage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf 取出错误分类；非本包错误归为 KindUnknown。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrInvalidDuration 计算出的计费天数 <= 0。
var ErrInvalidDuration = E(KindInvalidInput, "Invalid start or end dates.")
