// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 worker 实现生成任务的消费端：以有限并发从队列取任务，每个 worker
将一个任务的完整生命周期（选择服务商 → 生成 → 上传 → 登记产物）跑到
终态后再取下一个。

# 核心结构体

  - Handler — 单个任务的处理逻辑：解码 JobRecord、调用编排层、写入
    产物登记与历史、把结果写回队列
  - Server  — asynq 消费端封装：并发度、重试退避、优雅停机

# 交付语义

队列保证 at-least-once：worker 崩溃后任务会重投，处理逻辑必须可从头
重跑。上传以任务 ID 派生的确定性键幂等，产物登记重写同值无副作用。
*/
package worker
