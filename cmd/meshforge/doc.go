// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package main 提供 MeshForge 服务端程序入口。

# 概述

cmd/meshforge 是 3D 资产生成平台的可执行入口，提供 API 服务、
队列消费端和辅助子命令。程序支持 YAML 配置文件加载、.env 文件、
结构化日志（zap）和 Prometheus 指标采集。

# 主要能力

  - 子命令：serve（API + worker 同进程）、serve-api、serve-worker、
    version、health
  - 配置优先级：默认值 → YAML 文件 → 环境变量（MESHFORGE_ 前缀）
  - 产物存储：S3 凭证齐备时走 S3，否则落本地目录并经 /storage/ 提供
  - 优雅关闭：信号监听 → 停止 HTTP → 停止消费端 → 释放 Redis 连接
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
