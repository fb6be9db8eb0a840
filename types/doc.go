// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 types 定义 MeshForge 平台的共享数据模型与错误体系。

# 概述

本包不依赖任何其他业务包，是全仓库的类型底座。包含任务记录
（JobRecord）、任务类型 / 状态 / 格式等枚举，以及统一的结构化
错误类型 Error。

# 核心类型

  - JobRecord     — 一次 3D 生成请求的不可变记录，入队后只读
  - JobType       — text / image / multiview
  - JobStatus     — 对外的四值状态：queued / running / succeeded / failed
  - QueueState    — 队列原生状态投影：waiting / delayed / active /
    completed / failed / unknown
  - AssetFormat   — glb / fbx
  - Error         — 携带错误码、HTTP 状态与可重试标记的结构化错误
*/
package types
