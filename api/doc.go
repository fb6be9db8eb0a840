// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

// 包 api 提供 MeshForge 的 HTTP 接入层.
//
// # 概述
//
// 路由基于 chi，统一响应结构与错误码映射在 handlers 子包实现：
//
//   - POST /v1/jobs            创建生成任务
//   - GET  /v1/jobs/{jobID}    查询任务状态投影
//   - GET  /v1/assets/{assetID}          查询产物登记
//   - GET  /v1/assets/{assetID}/textures 查询贴图集
//   - GET  /v1/history         分页查询任务历史
//   - GET  /healthz            存活探针
//   - GET  /readyz             就绪探针（含 Redis 检查）
//   - GET  /metrics            Prometheus 指标
package api
