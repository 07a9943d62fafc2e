package universe

// builtinInstruments returns the embedded seed list used when live
// enumeration fails entirely. Large and mid caps across all four boards, so a
// degraded scan still covers a representative slice of the market.
func builtinInstruments() []Instrument {
	return []Instrument{
		// Shanghai main board
		{"600000", "浦发银行"}, {"600016", "民生银行"}, {"600028", "中国石化"},
		{"600030", "中信证券"}, {"600036", "招商银行"}, {"600048", "保利发展"},
		{"600050", "中国联通"}, {"600104", "上汽集团"}, {"600111", "北方稀土"},
		{"600276", "恒瑞医药"}, {"600309", "万华化学"}, {"600519", "贵州茅台"},
		{"600585", "海螺水泥"}, {"600690", "海尔智家"}, {"600809", "山西汾酒"},
		{"600887", "伊利股份"}, {"600900", "长江电力"}, {"601012", "隆基绿能"},
		{"601088", "中国神华"}, {"601166", "兴业银行"}, {"601318", "中国平安"},
		{"601398", "工商银行"}, {"601628", "中国人寿"}, {"601668", "中国建筑"},
		{"601888", "中国中免"}, {"601899", "紫金矿业"}, {"603259", "药明康德"},
		{"603288", "海天味业"}, {"603501", "韦尔股份"},

		// Shenzhen main board
		{"000001", "平安银行"}, {"000002", "万科A"}, {"000063", "中兴通讯"},
		{"000100", "TCL科技"}, {"000157", "中联重科"}, {"000333", "美的集团"},
		{"000338", "潍柴动力"}, {"000425", "徐工机械"}, {"000538", "云南白药"},
		{"000568", "泸州老窖"}, {"000625", "长安汽车"}, {"000651", "格力电器"},
		{"000661", "长春高新"}, {"000725", "京东方A"}, {"000776", "广发证券"},
		{"000858", "五粮液"}, {"000895", "双汇发展"}, {"000938", "紫光股份"},
		{"002027", "分众传媒"}, {"002049", "紫光国微"}, {"002142", "宁波银行"},
		{"002230", "科大讯飞"}, {"002241", "歌尔股份"}, {"002304", "洋河股份"},
		{"002352", "顺丰控股"}, {"002415", "海康威视"}, {"002460", "赣锋锂业"},
		{"002475", "立讯精密"}, {"002594", "比亚迪"}, {"002714", "牧原股份"},

		// ChiNext
		{"300014", "亿纬锂能"}, {"300015", "爱尔眼科"}, {"300033", "同花顺"},
		{"300059", "东方财富"}, {"300122", "智飞生物"}, {"300124", "汇川技术"},
		{"300408", "三环集团"}, {"300433", "蓝思科技"}, {"300450", "先导智能"},
		{"300496", "中科创达"}, {"300498", "温氏股份"}, {"300601", "康泰生物"},
		{"300661", "圣邦股份"}, {"300750", "宁德时代"}, {"300760", "迈瑞医疗"},
		{"300782", "卓胜微"}, {"300896", "爱美客"},

		// STAR market
		{"688005", "容百科技"}, {"688009", "中国通号"}, {"688012", "中微公司"},
		{"688036", "传音控股"}, {"688111", "金山办公"}, {"688126", "沪硅产业"},
		{"688169", "石头科技"}, {"688187", "时代电气"}, {"688200", "华峰测控"},
		{"688256", "寒武纪"}, {"688271", "联影医疗"}, {"688303", "大全能源"},
		{"688363", "华熙生物"}, {"688396", "华润微"}, {"688561", "奇安信"},
		{"688599", "天合光能"}, {"688981", "中芯国际"},
	}
}
