/*
crewtel 命令行工具：校验配置与团队定义，并以演练方式执行团队，
按 MONITORING_TYPE 选择的策略上报遥测事件。

使用方法:

	crewtel validate --config crewtel.yaml --crew crew.yaml
	crewtel emit --crew crew.yaml --input topic=go
	crewtel emit --crew crew.yaml --metrics-addr :9464 --linger 30s
	crewtel version

emit 使用内置的演练执行器：每项任务依次调用可用工具一次，
然后返回任务描述作为输出，不访问任何模型。
*/
package main
