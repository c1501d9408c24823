// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 crew 定义遥测上报所观察的编排对象：团队（Crew）、成员（Agent）、
任务（Task）、工具（Tool）与语言模型配置（LLM）。

# 核心模型

  - Crew：团队容器，持有成员与任务列表、执行方式与 share_crew 开关。
  - Agent：角色、目标、迭代上限、RPM 限制、工具列表与 LLM 配置。
  - Task：描述、期望输出、执行标志、上下文任务与执行结果。
  - LLM：内置的语言模型配置，包含凭据字段，仅经由白名单对外暴露。

# 团队定义

Definition 描述可从 YAML 加载的团队结构，Build 将其解析为带
UUID 的 Crew，并按名称把任务关联到成员和上下文任务。
*/
package crew
