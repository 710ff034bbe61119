/*
包 tokenizer 在发出补全请求前回答一个问题：这段提示词大概要花多少
token。

Tokenizer 接口有两类实现：TiktokenTokenizer 用 BPE 编码做精确计数，
覆盖 GPT 与 DeepSeek 系列模型；EstimatorTokenizer 按 CJK 与 ASCII
字符密度估算，作为未知模型或编码加载失败时的兜底。EstimateMessages
封装了这条回退链，调用方拿到的计数永远可用，适合做路由前的提示词
预算检查。
*/
package tokenizer
