package service

import (
	"errors"
	"fmt"
)

// 服务层统一错误类别，处理器据此映射业务码和HTTP状态
var (
	ErrValidation = errors.New("参数校验失败")    // 字段不合法，拒绝入库
	ErrNotFound   = errors.New("资源不存在")     // 引用的设备/事件/操作员不存在
	ErrConflict   = errors.New("非法的状态流转")   // 例如确认一个已解决的事件
	ErrForbidden  = errors.New("没有执行该操作的权限") // 非操作员执行操作员动作
)

// validationError 构造带说明的校验错误
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFoundError 构造带说明的不存在错误
func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// conflictError 构造带说明的冲突错误
func conflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
