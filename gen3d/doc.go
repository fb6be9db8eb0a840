// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
包 gen3d 提供统一的 3D 模型生成编排层，对接多个生成服务商并在无可用
服务商时回退到确定性占位模型。

# 概述

本包为上层 worker 屏蔽不同 3D 生成服务商在 API 协议、任务轮询和输出
格式上的差异，对外暴露一致的任务生命周期。典型使用场景包括：

  - 通过文本描述生成 3D 模型（text-to-3D）。
  - 通过单张或三张标定视角图像生成 3D 模型（image / multiview-to-3D）。
  - 无任何服务商可用时生成占位立方体模型（本地开发与降级路径）。

# 核心接口

  - Adapter        — 服务商适配器的统一抽象：Name / IsConfigured /
    GenerateFromText / GenerateFromImage / GenerateFromMultiView
  - Context        — 适配器运行环境（存储上传器）
  - SelectProvider — 按显式指定 → 环境默认 → 注册顺序自动选择
  - Generate3D     — 按任务类型分发到适配器或占位生成器

# 选择规则

显式指定的服务商只要已配置就硬性生效；未知或未配置的指定只告警并
回落到自动选择；自动选择返回注册顺序中第一个已配置的适配器；一个
都没有时返回 nil，由编排层走占位路径。选择是纯函数，调用之间不缓存。
*/
package gen3d
