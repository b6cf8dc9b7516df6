// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前包含 Bearer token 驗證：驗證成功後將 Principal 放入 gin.Context，
// 讓後續的 handler 以同一個身分呼叫服務層。
package middleware
