// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 queue 封装平台使用的持久化任务队列（asynq / redis）。

# 概述

队列本身是外部依赖：至少一次投递、按任务重试与退避、可查询的任务
状态都由 asynq 提供。本包只做三件事：

  - Client     — 以任务 id 为键入队生成任务（attempts=2，指数退避 5s 起）
  - Inspector  — 读取队列原生状态并投影为 types.QueueState
  - MapState   — asynq.TaskState → QueueState 的确定性映射

# 状态映射

	pending / aggregating → waiting
	scheduled / retry     → delayed
	active                → active
	completed             → completed
	archived              → failed
	其他                  → unknown
*/
package queue
