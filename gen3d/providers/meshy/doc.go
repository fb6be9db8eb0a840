// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 meshy 实现 Meshy 3D 生成适配器，对接 api.meshy.ai 的 OpenAPI
任务接口。文本任务走 /openapi/v2/text-to-3d，单图与三视图任务分别走
/openapi/v1/image-to-3d 与 /openapi/v1/multi-image-to-3d。

# 核心结构体

  - Provider — 适配器实现：创建任务、轮询状态、下载产物并写入存储
  - Config   — API Key 与轮询参数

# 生成流程

创建任务 → 轮询（默认 3s × 200 次，终态 SUCCEEDED/FAILED/CANCELED）→
按请求格式从 model_urls 取下载地址（缺失即失败）→ 上传存储。
贴图任务额外从 texture_urls[0] 提取命名贴图（albedo / normal /
roughness / metallic），单项缺失静默降级。

# 载荷映射

textureOptions.resolution → texture_resolution；textureOptions.style →
art_style（photorealistic→realistic、cartoon→cartoon、stylized→low-poly、
flat→pbr）。骨骼选项 Meshy 不支持，告警后忽略。
*/
package meshy
