// Package api 處理 HTTP 請求路由。
//
// 這個包把 handlers 掛載到 gin 路由上：公開的註冊、登入、健康檢查與 WebSocket 端點，
// 以及需要 Bearer token 的隊伍、黑客松與聊天 REST 介面。
package api
