// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 jobs 实现任务入口与状态投影：把未经校验的创建请求转化为规范化的
JobRecord 并入队，再把队列原生状态投影为面向客户端的封闭状态词表。

# 核心结构体

  - Intake — 创建请求校验、任务 ID 分配、入队与历史记录
  - Status — 队列状态 → queued/running/succeeded/failed 投影

# 校验语义

校验一次性收集所有违反项（而不是遇错即停），任何违反都是终态错误，
不会进入队列重试。入队以任务 ID 为幂等键，重复提交同一 ID 不报错。
*/
package jobs
