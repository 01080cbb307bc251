package filter

import (
	"fmt"
	"strings"
)

// Set 一组可选的设备身份过滤器 (vendor id / product id / serial / port)
// 匹配语义为精确字符串相等,大小写敏感,不做通配或模糊匹配 —
// 这是有意的约定而非疏漏。构造后不可变,设置变更时整体换新。
type Set struct {
	vendorID  string
	productID string
	serial    string
	port      string
}

// New 从设置快照构造过滤器,各字段去掉首尾空白
func New(vendorID, productID, serial, port string) *Set {
	return &Set{
		vendorID:  strings.TrimSpace(vendorID),
		productID: strings.TrimSpace(productID),
		serial:    strings.TrimSpace(serial),
		port:      strings.TrimSpace(port),
	}
}

// Empty 四个过滤器是否全未配置
func (s *Set) Empty() bool {
	return s.vendorID == "" && s.productID == "" && s.serial == "" && s.port == ""
}

// Matches 判断候选设备是否通过过滤
// 全空时放行任何设备;否则每个非空过滤器都必须精确相等,
// 按 vendor → product → serial → port 顺序短路。
// 第二个返回值是可直接写进日志的原因说明。
func (s *Set) Matches(vendorID, productID, serialNumber, port string) (bool, string) {
	if s.Empty() {
		return true, "no filters configured"
	}
	if s.vendorID != "" && vendorID != s.vendorID {
		return false, fmt.Sprintf("vendor id mismatch: %s != %s", vendorID, s.vendorID)
	}
	if s.productID != "" && productID != s.productID {
		return false, fmt.Sprintf("product id mismatch: %s != %s", productID, s.productID)
	}
	if s.serial != "" && serialNumber != s.serial {
		return false, fmt.Sprintf("serial mismatch: %s != %s", serialNumber, s.serial)
	}
	if s.port != "" && port != s.port {
		return false, fmt.Sprintf("port mismatch: %s != %s", port, s.port)
	}
	return true, ""
}

// String 渲染过滤器配置,空字段显示为 (any)
func (s *Set) String() string {
	return fmt.Sprintf("vendor=%s product=%s serial=%s port=%s",
		orAny(s.vendorID), orAny(s.productID), orAny(s.serial), orAny(s.port))
}

func orAny(v string) string {
	if v == "" {
		return "(any)"
	}
	return v
}
